package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	status         TEXT NOT NULL,
	overall        INTEGER NOT NULL DEFAULT 0,
	recommendation TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	industry   TEXT NOT NULL DEFAULT '',
	size       TEXT NOT NULL DEFAULT '',
	profile    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS research (
	id            TEXT PRIMARY KEY,
	company_id    TEXT NOT NULL REFERENCES companies(id),
	payload       TEXT NOT NULL,
	researched_at DATETIME NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS vectors (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL,
	vec        TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company);
CREATE INDEX IF NOT EXISTS idx_research_company_id ON research(company_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, state model.PipelineState) error {
	if state.RunID == "" {
		return eris.New("sqlite: save run: run id is required")
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run")
	}
	sum := summarize(state)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, company, status, overall, recommendation, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			overall = excluded.overall,
			recommendation = excluded.recommendation,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		sum.ID, sum.Company, string(sum.Status), sum.Overall, string(sum.Recommendation),
		string(stateJSON), sum.CreatedAt.UTC(), s.now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save run %s", state.RunID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.PipelineState, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM runs WHERE id = ?`, runID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	var state model.PipelineState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal run")
	}
	return &state, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company, status, overall, recommendation, created_at FROM runs ORDER BY created_at DESC, id LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, company model.Company) (string, error) {
	domain := NormalizeDomain(company.Domain)
	if domain == "" {
		return "", eris.Wrapf(ErrNoDomain, "sqlite: upsert company %q", company.Name)
	}
	profile, err := json.Marshal(company)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal company")
	}
	now := s.now().UTC()

	var id string
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO companies (id, domain, name, industry, size, profile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (domain) DO UPDATE SET
			name = excluded.name,
			industry = excluded.industry,
			size = excluded.size,
			profile = excluded.profile,
			updated_at = excluded.updated_at
		RETURNING id`,
		uuid.NewString(), domain, company.Name, company.Industry, string(company.Size), string(profile), now, now,
	).Scan(&id)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert company %s", domain)
	}
	return id, nil
}

func (s *SQLiteStore) SaveResearch(ctx context.Context, companyID string, research model.ResearchResult) error {
	payload, err := json.Marshal(research)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal research")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO research (id, company_id, payload, researched_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), companyID, string(payload), research.ResearchedAt.UTC(), s.now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save research for %s", companyID)
	}
	return nil
}

func (s *SQLiteStore) UpsertVector(ctx context.Context, rec VectorRecord) error {
	vec, meta, err := encodeVector(rec)
	if err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vectors (id, company_id, company, vec, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			company_id = excluded.company_id,
			company = excluded.company,
			vec = excluded.vec,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		rec.ID, rec.CompanyID, rec.Company, string(vec), string(meta), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert vector %s", rec.ID)
	}
	return nil
}

func (s *SQLiteStore) ListVectors(ctx context.Context) ([]VectorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, company, vec, metadata, updated_at FROM vectors ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list vectors")
	}
	defer rows.Close() //nolint:errcheck

	var out []VectorRecord
	for rows.Next() {
		var rec VectorRecord
		var vec, meta string
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.Company, &vec, &meta, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan vector")
		}
		if err := decodeVector(&rec, []byte(vec), []byte(meta)); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate vectors")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSummary(row scannable) (model.RunSummary, error) {
	var sum model.RunSummary
	var status, rec string
	if err := row.Scan(&sum.ID, &sum.Company, &status, &sum.Overall, &rec, &sum.CreatedAt); err != nil {
		return sum, eris.Wrap(err, "store: scan run summary")
	}
	sum.Status = model.PipelineStatus(status)
	sum.Recommendation = model.Recommendation(rec)
	return sum, nil
}

func encodeVector(rec VectorRecord) (vec, meta []byte, err error) {
	if rec.ID == "" {
		return nil, nil, eris.New("store: vector id is required")
	}
	if len(rec.Values) == 0 {
		return nil, nil, eris.Errorf("store: vector %s has no values", rec.ID)
	}
	if vec, err = json.Marshal(rec.Values); err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal vector")
	}
	m := rec.Metadata
	if m == nil {
		m = map[string]string{}
	}
	if meta, err = json.Marshal(m); err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal vector metadata")
	}
	return vec, meta, nil
}

func decodeVector(rec *VectorRecord, vec, meta []byte) error {
	if err := json.Unmarshal(vec, &rec.Values); err != nil {
		return eris.Wrapf(err, "store: unmarshal vector %s", rec.ID)
	}
	return decodeMetadata(rec, meta)
}

func decodeMetadata(rec *VectorRecord, meta []byte) error {
	if len(meta) == 0 {
		return nil
	}
	if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
		return eris.Wrapf(err, "store: unmarshal vector metadata %s", rec.ID)
	}
	return nil
}
