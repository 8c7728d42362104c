// Package store persists pipeline runs, researched companies and embedding
// vectors in SQLite or Postgres.
package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = eris.New("store: not found")

// ErrNoDomain is returned by UpsertCompany for a company without a usable domain.
var ErrNoDomain = eris.New("store: company domain is required")

// VectorRecord is one embedded research summary.
type VectorRecord struct {
	ID        string            `json:"id"`
	CompanyID string            `json:"company_id"`
	Company   string            `json:"company"`
	Values    []float32         `json:"values"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Store defines the persistence interface for pipeline runs and research.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, state model.PipelineState) error
	GetRun(ctx context.Context, runID string) (*model.PipelineState, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error)

	// Companies and research
	UpsertCompany(ctx context.Context, company model.Company) (string, error)
	SaveResearch(ctx context.Context, companyID string, research model.ResearchResult) error

	// Vectors
	UpsertVector(ctx context.Context, rec VectorRecord) error
	ListVectors(ctx context.Context) ([]VectorRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// DefaultListLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultListLimit = 50

// NormalizeDomain reduces a domain or URL to its bare lowercase host,
// e.g. "https://www.Stripe.com/pricing" -> "stripe.com".
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	return strings.TrimPrefix(host, "www.")
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func summarize(state model.PipelineState) model.RunSummary {
	sum := model.RunSummary{
		ID:        state.RunID,
		Company:   state.Company,
		Status:    state.Status,
		CreatedAt: state.StartedAt,
	}
	if state.Score != nil {
		sum.Overall = state.Score.Overall
		sum.Recommendation = state.Score.Recommendation
	}
	return sum
}
