package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testState(id, company string, overall int, started time.Time) model.PipelineState {
	done := started.Add(5 * time.Second)
	return model.PipelineState{
		RunID:       id,
		Company:     company,
		Status:      model.PipelineCompleted,
		Agents:      []model.AgentStatus{{Name: model.AgentResearch, Status: model.AgentCompleted, Progress: 100}},
		Score:       &model.ScoreResult{Overall: overall, Recommendation: model.Recommend(overall)},
		StartedAt:   started,
		CompletedAt: &done,
	}
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_SaveAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, testState("run-1", "Stripe", 87, started)))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Stripe", got.Company)
	assert.Equal(t, model.PipelineCompleted, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 87, got.Score.Overall)
	require.Len(t, got.Agents, 1)
	assert.True(t, started.Equal(got.StartedAt))
}

func TestSQLite_SaveRunOverwrites(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, testState("run-1", "Stripe", 40, started)))
	require.NoError(t, s.SaveRun(ctx, testState("run-1", "Stripe", 90, started)))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 90, runs[0].Overall)
	assert.Equal(t, model.RecommendHot, runs[0].Recommendation)
}

func TestSQLite_SaveRunRequiresID(t *testing.T) {
	s := newTestSQLite(t)
	err := s.SaveRun(context.Background(), model.PipelineState{Company: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run id is required")
}

func TestSQLite_GetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_ListRunsNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, testState("a", "Alpha", 30, base)))
	require.NoError(t, s.SaveRun(ctx, testState("b", "Beta", 60, base.Add(time.Minute))))
	require.NoError(t, s.SaveRun(ctx, testState("c", "Gamma", 80, base.Add(2*time.Minute))))

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, model.PipelineCompleted, runs[0].Status)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_UpsertCompanyByDomain(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	id1, err := s.UpsertCompany(ctx, model.Company{Name: "Stripe", Domain: "stripe.com", Size: model.SizeEnterprise})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := s.UpsertCompany(ctx, model.Company{Name: "Stripe Inc", Domain: "https://www.Stripe.com"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	var name string
	require.NoError(t, s.db.QueryRow(`SELECT name FROM companies WHERE id = ?`, id1).Scan(&name))
	assert.Equal(t, "Stripe Inc", name)
}

func TestSQLite_UpsertCompanyNoDomain(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.UpsertCompany(context.Background(), model.Company{Name: "Nameless"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDomain))
}

func TestSQLite_SaveResearch(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	id, err := s.UpsertCompany(ctx, model.Company{Name: "Notion", Domain: "notion.so"})
	require.NoError(t, err)

	research := model.ResearchResult{
		Company:      model.Company{Name: "Notion", Domain: "notion.so"},
		Summary:      "Collaborative workspace",
		ResearchedAt: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveResearch(ctx, id, research))
	require.NoError(t, s.SaveResearch(ctx, id, research))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM research WHERE company_id = ?`, id).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLite_SaveResearchUnknownCompany(t *testing.T) {
	s := newTestSQLite(t)
	err := s.SaveResearch(context.Background(), "nope", model.ResearchResult{})
	require.Error(t, err)
}

func TestSQLite_Vectors(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertVector(ctx, VectorRecord{ID: "stripe.com", Company: "Stripe", Values: []float32{1, 0, 0}, Metadata: map[string]string{"industry": "Fintech"}}))
	require.NoError(t, s.UpsertVector(ctx, VectorRecord{ID: "notion.so", Company: "Notion", Values: []float32{0, 1, 0}}))
	require.NoError(t, s.UpsertVector(ctx, VectorRecord{ID: "stripe.com", Company: "Stripe", Values: []float32{0.5, 0.5, 0}}))

	recs, err := s.ListVectors(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "notion.so", recs[0].ID)
	assert.Equal(t, "stripe.com", recs[1].ID)
	assert.Equal(t, []float32{0.5, 0.5, 0}, recs[1].Values)
	assert.Empty(t, recs[1].Metadata)
	assert.False(t, recs[0].UpdatedAt.IsZero())
}

func TestSQLite_UpsertVectorValidation(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	err := s.UpsertVector(ctx, VectorRecord{Values: []float32{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector id is required")

	err = s.UpsertVector(ctx, VectorRecord{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no values")
}
