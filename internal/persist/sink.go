// Package persist fans a research result out to the configured systems of
// record. Every target is optional and failures never reach the pipeline.
package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/notion"
	"github.com/sells-group/outreach-cli/pkg/salesforce"
)

// CompanyStore is the part of the store the sink writes to.
type CompanyStore interface {
	UpsertCompany(ctx context.Context, company model.Company) (string, error)
	SaveResearch(ctx context.Context, companyID string, research model.ResearchResult) error
}

// Indexer embeds research for similarity search.
type Indexer interface {
	Upsert(ctx context.Context, companyID string, research model.ResearchResult) error
}

// Sink writes research to the store, vector index, Notion and Salesforce.
type Sink struct {
	store    CompanyStore
	index    Indexer
	notion   notion.LeadPages
	sf       salesforce.Client
}

// Option configures a Sink.
type Option func(*Sink)

// WithStore saves the company profile and research payload.
func WithStore(s CompanyStore) Option {
	return func(k *Sink) { k.store = s }
}

// WithIndex embeds the research for similarity search.
func WithIndex(ix Indexer) Option {
	return func(k *Sink) { k.index = ix }
}

// WithNotion upserts a lead page into the lead database.
func WithNotion(db notion.LeadPages) Option {
	return func(k *Sink) { k.notion = db }
}

// WithSalesforce upserts an Account and inserts its Contacts.
func WithSalesforce(c salesforce.Client) Option {
	return func(k *Sink) { k.sf = c }
}

// New creates a Sink. With no options Persist is a no-op.
func New(opts ...Option) *Sink {
	s := &Sink{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Targets lists the enabled targets.
func (s *Sink) Targets() []string {
	var out []string
	if s.store != nil {
		out = append(out, "store")
	}
	if s.index != nil {
		out = append(out, "vector")
	}
	if s.notion != nil {
		out = append(out, "notion")
	}
	if s.sf != nil {
		out = append(out, "salesforce")
	}
	return out
}

// Persist writes research to every enabled target concurrently. The vector
// record is linked to the store's company id when the store write succeeds
// first. Errors from all targets are joined.
func (s *Sink) Persist(ctx context.Context, research model.ResearchResult) error {
	log := zap.L().With(zap.String("company", research.Company.Name))
	start := time.Now()

	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(target string, err error) {
		if err == nil {
			log.Debug("persist: target complete", zap.String("target", target))
			return
		}
		log.Warn("persist: target failed", zap.String("target", target), zap.Error(err))
		mu.Lock()
		errs = append(errs, eris.Wrapf(err, "persist: %s", target))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.store != nil || s.index != nil {
		g.Go(func() error {
			companyID := ""
			if s.store != nil {
				id, err := s.saveStore(gctx, research)
				collect("store", err)
				companyID = id
			}
			if s.index != nil {
				collect("vector", s.index.Upsert(gctx, companyID, research))
			}
			return nil
		})
	}
	if s.notion != nil {
		g.Go(func() error {
			collect("notion", s.saveNotion(gctx, research))
			return nil
		})
	}
	if s.sf != nil {
		g.Go(func() error {
			collect("salesforce", s.saveSalesforce(gctx, research))
			return nil
		})
	}
	_ = g.Wait()

	log.Info("persist: complete",
		zap.Strings("targets", s.Targets()),
		zap.Int("failed", len(errs)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return errors.Join(errs...)
}

func (s *Sink) saveStore(ctx context.Context, research model.ResearchResult) (string, error) {
	id, err := s.store.UpsertCompany(ctx, research.Company)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveResearch(ctx, id, research); err != nil {
		return id, err
	}
	return id, nil
}

func (s *Sink) saveNotion(ctx context.Context, research model.ResearchResult) error {
	c := research.Company
	_, _, err := notion.UpsertLead(ctx, s.notion, notion.Lead{
		Name:       c.Name,
		Domain:     store.NormalizeDomain(c.Domain),
		Industry:   c.Industry,
		Size:       string(c.Size),
		Signals:    len(research.Signals),
		PainPoints: c.PainPoints,
		Summary:    research.Summary,
		Status:     "Researched",
	})
	return err
}

func (s *Sink) saveSalesforce(ctx context.Context, research model.ResearchResult) error {
	c := research.Company
	domain := store.NormalizeDomain(c.Domain)
	if domain == "" {
		return eris.New("salesforce: company domain is required")
	}

	account := map[string]any{
		"Name":        c.Name,
		"Industry":    c.Industry,
		"Description": truncate(research.Summary, 32000),
	}
	accountID, created, err := salesforce.UpsertAccount(ctx, s.sf, domain, account)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	contacts := make([]map[string]any, 0, len(research.Contacts))
	for _, ct := range research.Contacts {
		if ct.ID == model.PlaceholderContactID {
			continue
		}
		first, last := salesforce.SplitName(ct.Name)
		if last == "" {
			continue
		}
		rec := map[string]any{
			"FirstName":  first,
			"LastName":   last,
			"Title":      ct.Title,
			"Department": string(ct.Department),
			"LeadSource": fmt.Sprintf("outreach-cli (%s)", ct.Priority),
		}
		if ct.Email != "" {
			rec["Email"] = ct.Email
		}
		contacts = append(contacts, rec)
	}
	_, err = salesforce.InsertContacts(ctx, s.sf, accountID, contacts)
	return err
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
