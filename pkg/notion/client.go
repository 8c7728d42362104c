// Package notion records researched leads as pages in a Notion database.
package notion

import (
	"context"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// LeadPages reads and writes pages of a single lead database.
type LeadPages interface {
	FindByDomain(ctx context.Context, domain string) (*notionapi.Page, error)
	Create(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error)
	Update(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error)
}

// Option configures a LeadDB.
type Option func(*LeadDB)

// WithRateLimit sets requests per second. Notion allows about 3; zero
// disables throttling.
func WithRateLimit(rps float64) Option {
	return func(db *LeadDB) {
		db.limiter = nil
		if rps > 0 {
			db.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(db *LeadDB) { db.apiOpts = append(db.apiOpts, notionapi.WithHTTPClient(hc)) }
}

// LeadDB is the lead database behind an integration token.
type LeadDB struct {
	id      notionapi.DatabaseID
	api     *notionapi.Client
	apiOpts []notionapi.ClientOption
	limiter *rate.Limiter
}

// NewLeadDB binds token to database dbID.
func NewLeadDB(token, dbID string, opts ...Option) (*LeadDB, error) {
	if dbID == "" {
		return nil, eris.New("notion: lead database id is required")
	}
	db := &LeadDB{
		id:      notionapi.DatabaseID(dbID),
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.api = notionapi.NewClient(notionapi.Token(token), db.apiOpts...)
	return db, nil
}

func (db *LeadDB) throttle(ctx context.Context) error {
	if db.limiter == nil {
		return nil
	}
	return eris.Wrap(db.limiter.Wait(ctx), "notion: rate limit")
}

// FindByDomain returns the first page whose Domain equals domain, or nil.
func (db *LeadDB) FindByDomain(ctx context.Context, domain string) (*notionapi.Page, error) {
	if err := db.throttle(ctx); err != nil {
		return nil, err
	}
	resp, err := db.api.Database.Query(ctx, db.id, domainQuery(domain))
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query %s by domain", db.id)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

func (db *LeadDB) Create(ctx context.Context, props notionapi.Properties) (*notionapi.Page, error) {
	if err := db.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := db.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: db.id},
		Properties: props,
	})
	return page, eris.Wrapf(err, "notion: create page in %s", db.id)
}

func (db *LeadDB) Update(ctx context.Context, pageID string, props notionapi.Properties) (*notionapi.Page, error) {
	if err := db.throttle(ctx); err != nil {
		return nil, err
	}
	page, err := db.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: props})
	return page, eris.Wrapf(err, "notion: update page %s", pageID)
}

func domainQuery(domain string) *notionapi.DatabaseQueryRequest {
	return &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Domain",
			RichText: &notionapi.TextFilterCondition{Equals: domain},
		},
		PageSize: 1,
	}
}
