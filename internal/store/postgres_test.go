package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock, now: func() time.Time { return fixedNow }}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO "runs" .* ON CONFLICT \("id"\) DO UPDATE SET "status" = EXCLUDED."status"`).
		WithArgs("run-1", "Stripe", "completed", 87, "hot", pgxmock.AnyArg(), started, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveRun(context.Background(), testState("run-1", "Stripe", 87, started))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "runs"`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	err := s.SaveRun(context.Background(), testState("run-1", "Stripe", 87, fixedNow))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT state FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"state"}).
			AddRow([]byte(`{"runId":"run-1","companyName":"Stripe","status":"completed","agents":[]}`)))

	got, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "Stripe", got.Company)
	assert.Equal(t, model.PipelineCompleted, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT state FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company, status, overall, recommendation, created_at FROM runs`).
		WithArgs(DefaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company", "status", "overall", "recommendation", "created_at"}).
			AddRow("b", "Notion", "completed", 64, "warm", fixedNow).
			AddRow("a", "", "error", 0, "", fixedNow.Add(-time.Hour)))

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.RecommendWarm, runs[0].Recommendation)
	assert.Equal(t, model.PipelineError, runs[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`INSERT INTO "companies" .* ON CONFLICT \("domain"\) .* RETURNING "id"`).
		WithArgs(pgxmock.AnyArg(), "stripe.com", "Stripe", "Fintech", "enterprise", pgxmock.AnyArg(), fixedNow, fixedNow).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("company-1"))

	id, err := s.UpsertCompany(context.Background(), model.Company{
		Name: "Stripe", Domain: "www.stripe.com", Industry: "Fintech", Size: model.SizeEnterprise,
	})
	require.NoError(t, err)
	assert.Equal(t, "company-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCompany_NoDomain(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	_, err := s.UpsertCompany(context.Background(), model.Company{Name: "Nameless"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDomain))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResearch(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	researched := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO research`).
		WithArgs(pgxmock.AnyArg(), "company-1", pgxmock.AnyArg(), researched, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveResearch(context.Background(), "company-1", model.ResearchResult{ResearchedAt: researched})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertVector(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "vectors" .* ON CONFLICT \("id"\) DO UPDATE SET "company_id" = EXCLUDED."company_id"`).
		WithArgs("stripe.com", "company-1", "Stripe", []float32{1, 2}, pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertVector(context.Background(), VectorRecord{ID: "stripe.com", CompanyID: "company-1", Company: "Stripe", Values: []float32{1, 2}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListVectors(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company_id, company, vec, metadata, updated_at FROM vectors`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "company", "vec", "metadata", "updated_at"}).
			AddRow("stripe.com", "company-1", "Stripe", []float32{1, 0}, []byte(`{"industry":"Fintech"}`), fixedNow))

	recs, err := s.ListVectors(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []float32{1, 0}, recs[0].Values)
	assert.Equal(t, "Fintech", recs[0].Metadata["industry"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
