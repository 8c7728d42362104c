package vector

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// IndexName labels vectors written by this package.
const IndexName = "intent-platform"

// Backend is the part of the store that holds vectors.
type Backend interface {
	UpsertVector(ctx context.Context, rec store.VectorRecord) error
	ListVectors(ctx context.Context) ([]store.VectorRecord, error)
}

// Match is one similar company.
type Match struct {
	ID       string            `json:"id"`
	Company  string            `json:"company"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Index embeds research and answers similarity queries.
type Index struct {
	backend  Backend
	embedder Embedder
	now      func() time.Time
}

// NewIndex creates an Index over backend.
func NewIndex(backend Backend, embedder Embedder) *Index {
	return &Index{backend: backend, embedder: embedder, now: time.Now}
}

// Upsert embeds research and stores it under the company's domain, or its
// lowercased name when there is no domain.
func (ix *Index) Upsert(ctx context.Context, companyID string, research model.ResearchResult) error {
	id := RecordID(research.Company)
	if id == "" {
		return eris.New("vector: company has neither domain nor name")
	}
	vecs, err := ix.embedder.Embed(ctx, []string{Document(research)})
	if err != nil {
		return eris.Wrapf(err, "vector: embed %s", id)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return eris.Errorf("vector: empty embedding for %s", id)
	}

	rec := store.VectorRecord{
		ID:        id,
		CompanyID: companyID,
		Company:   research.Company.Name,
		Values:    vecs[0],
		Metadata: map[string]string{
			"index":    IndexName,
			"industry": research.Company.Industry,
			"size":     string(research.Company.Size),
			"embedder": ix.embedder.Name(),
		},
		UpdatedAt: ix.now().UTC(),
	}
	if err := ix.backend.UpsertVector(ctx, rec); err != nil {
		return eris.Wrapf(err, "vector: upsert %s", id)
	}
	zap.L().Debug("vector: upserted", zap.String("id", id), zap.Int("dims", len(rec.Values)))
	return nil
}

// Similar embeds query and returns up to k stored companies ranked by
// cosine similarity. Records whose id or name equals exclude are skipped.
func (ix *Index) Similar(ctx context.Context, query string, k int, exclude string) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, eris.New("vector: query is required")
	}
	if k <= 0 {
		k = 5
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, eris.Wrap(err, "vector: embed query")
	}
	if len(vecs) != 1 {
		return nil, eris.Errorf("vector: expected 1 query embedding, got %d", len(vecs))
	}

	recs, err := ix.backend.ListVectors(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "vector: list")
	}

	exclude = strings.ToLower(strings.TrimSpace(exclude))
	matches := make([]Match, 0, len(recs))
	for _, r := range recs {
		if exclude != "" && (r.ID == exclude || strings.EqualFold(r.Company, exclude)) {
			continue
		}
		// Vectors from another embedder live in a different space.
		if e := r.Metadata["embedder"]; e != "" && e != ix.embedder.Name() {
			continue
		}
		matches = append(matches, Match{
			ID:       r.ID,
			Company:  r.Company,
			Score:    Cosine(vecs[0], r.Values),
			Metadata: r.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// RecordID is the vector key for a company.
func RecordID(c model.Company) string {
	if d := store.NormalizeDomain(c.Domain); d != "" {
		return d
	}
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// Document is the text embedded for a research result.
func Document(r model.ResearchResult) string {
	var b strings.Builder
	b.WriteString(r.Company.Name)
	b.WriteString(". ")
	if r.Company.Industry != "" {
		b.WriteString(r.Company.Industry)
		b.WriteString(". ")
	}
	if r.Company.Description != "" {
		b.WriteString(r.Company.Description)
		b.WriteString(" ")
	}
	if len(r.Company.PainPoints) > 0 {
		b.WriteString("Pain points: ")
		b.WriteString(strings.Join(r.Company.PainPoints, "; "))
		b.WriteString(". ")
	}
	if len(r.Company.TechStack) > 0 {
		b.WriteString("Tech: ")
		b.WriteString(strings.Join(r.Company.TechStack, ", "))
		b.WriteString(". ")
	}
	b.WriteString(r.Summary)
	return strings.TrimSpace(b.String())
}
