package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlGetRun       = `SELECT state FROM runs WHERE id = $1`
	sqlListRuns     = `SELECT id, company, status, overall, recommendation, created_at FROM runs ORDER BY created_at DESC, id LIMIT $1`
	sqlSaveResearch = `INSERT INTO research (id, company_id, payload, researched_at, created_at) VALUES ($1, $2, $3, $4, $5)`
	sqlListVectors  = `SELECT id, company_id, company, vec, metadata, updated_at FROM vectors ORDER BY id`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"get_run":       sqlGetRun,
	"list_runs":     sqlListRuns,
	"save_research": sqlSaveResearch,
	"list_vectors":  sqlListVectors,
}

var (
	runUpsert = db.UpsertConfig{
		Table:        "runs",
		Columns:      []string{"id", "company", "status", "overall", "recommendation", "state", "created_at", "updated_at"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"status", "overall", "recommendation", "state", "updated_at"},
	}
	companyUpsert = db.UpsertConfig{
		Table:        "companies",
		Columns:      []string{"id", "domain", "name", "industry", "size", "profile", "created_at", "updated_at"},
		ConflictKeys: []string{"domain"},
		UpdateCols:   []string{"name", "industry", "size", "profile", "updated_at"},
		Returning:    "id",
	}
	vectorUpsert = db.UpsertConfig{
		Table:        "vectors",
		Columns:      []string{"id", "company_id", "company", "vec", "metadata", "updated_at"},
		ConflictKeys: []string{"id"},
	}
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	status         TEXT NOT NULL,
	overall        INTEGER NOT NULL DEFAULT 0,
	recommendation TEXT NOT NULL DEFAULT '',
	state          JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	domain     TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	industry   TEXT NOT NULL DEFAULT '',
	size       TEXT NOT NULL DEFAULT '',
	profile    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS research (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company_id    TEXT NOT NULL REFERENCES companies(id),
	payload       JSONB NOT NULL,
	researched_at TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vectors (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL,
	vec        REAL[] NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company);
CREATE INDEX IF NOT EXISTS idx_research_company_id ON research(company_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, state model.PipelineState) error {
	if state.RunID == "" {
		return eris.New("postgres: save run: run id is required")
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run")
	}
	sum := summarize(state)
	err = db.Upsert(ctx, s.pool, runUpsert,
		sum.ID, sum.Company, string(sum.Status), sum.Overall, string(sum.Recommendation),
		stateJSON, sum.CreatedAt.UTC(), s.now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save run %s", state.RunID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.PipelineState, error) {
	var stateJSON []byte
	err := s.pool.QueryRow(ctx, sqlGetRun, runID).Scan(&stateJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	var state model.PipelineState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal run")
	}
	return &state, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := s.pool.Query(ctx, sqlListRuns, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, company model.Company) (string, error) {
	domain := NormalizeDomain(company.Domain)
	if domain == "" {
		return "", eris.Wrapf(ErrNoDomain, "postgres: upsert company %q", company.Name)
	}
	profile, err := json.Marshal(company)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal company")
	}
	now := s.now().UTC()

	var id string
	err = db.UpsertReturning(ctx, s.pool, companyUpsert, &id,
		uuid.NewString(), domain, company.Name, company.Industry, string(company.Size), profile, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: upsert company %s", domain)
	}
	return id, nil
}

func (s *PostgresStore) SaveResearch(ctx context.Context, companyID string, research model.ResearchResult) error {
	payload, err := json.Marshal(research)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal research")
	}
	_, err = s.pool.Exec(ctx, sqlSaveResearch,
		uuid.NewString(), companyID, payload, research.ResearchedAt.UTC(), s.now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save research for %s", companyID)
}

func (s *PostgresStore) UpsertVector(ctx context.Context, rec VectorRecord) error {
	_, meta, err := encodeVector(rec)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}
	err = db.Upsert(ctx, s.pool, vectorUpsert,
		rec.ID, rec.CompanyID, rec.Company, rec.Values, meta, rec.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert vector %s", rec.ID)
}

func (s *PostgresStore) ListVectors(ctx context.Context) ([]VectorRecord, error) {
	rows, err := s.pool.Query(ctx, sqlListVectors)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list vectors")
	}
	defer rows.Close()

	var out []VectorRecord
	for rows.Next() {
		var rec VectorRecord
		var meta []byte
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.Company, &rec.Values, &meta, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan vector")
		}
		if err := decodeMetadata(&rec, meta); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate vectors")
}
