// Package dataset serves a small fixed table of demo accounts so that known
// companies resolve without touching the gateway.
package dataset

import (
	_ "embed"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/outreach-cli/internal/model"
)

//go:embed companies.yaml
var companiesYAML []byte

// Entry is the full canned result for one demo company.
type Entry struct {
	Key      string
	Research model.ResearchResult
	Score    model.ScoreResult
	Outreach model.OutreachContent
}

// DemoCompany is a quick-pick suggestion for the UI and CLI.
type DemoCompany struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

type entryDoc struct {
	Key      string                `yaml:"key"`
	Aliases  []string              `yaml:"aliases"`
	Tag      string                `yaml:"tag"`
	Blurb    string                `yaml:"blurb"`
	Research researchDoc           `yaml:"research"`
	Score    model.ScoreResult     `yaml:"score"`
	Outreach model.OutreachContent `yaml:"outreach"`
}

type researchDoc struct {
	Company  model.Company `yaml:"company"`
	Signals  []signalDoc   `yaml:"signals"`
	Contacts []contactDoc  `yaml:"contacts"`
	Summary  string        `yaml:"summary"`
	Duration int           `yaml:"research_duration"`
}

type signalDoc struct {
	Type            string `yaml:"type"`
	Strength        string `yaml:"strength"`
	Description     string `yaml:"description"`
	Source          string `yaml:"source"`
	DetectedDaysAgo int    `yaml:"detected_days_ago"`
}

type contactDoc struct {
	Name       string `yaml:"name"`
	Title      string `yaml:"title"`
	Department string `yaml:"department"`
	Priority   string `yaml:"priority"`
	Email      string `yaml:"email"`
	LinkedIn   string `yaml:"linkedin"`
}

var (
	loadOnce sync.Once
	docs     []entryDoc
	loadErr  error
)

func load() ([]entryDoc, error) {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(companiesYAML, &docs); err != nil {
			loadErr = eris.Wrap(err, "dataset: parse companies.yaml")
		}
	})
	return docs, loadErr
}

// Table resolves company names against the embedded demo accounts.
type Table struct {
	now func() time.Time
}

// Option configures a Table.
type Option func(*Table)

// WithClock sets the clock used to materialize relative timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Table) { t.now = now }
}

// New returns a Table over the embedded dataset.
func New(opts ...Option) *Table {
	t := &Table{now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

var defaultTable = New()

// Lookup resolves name using the default table.
func Lookup(name string) (Entry, bool) {
	return defaultTable.Lookup(name)
}

// Normalize lowercases and trims a company name the way lookups compare it.
// Casers are stateful, so each call builds its own.
func Normalize(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// Lookup normalizes name and tries an exact key match, then an alias match,
// then a substring match in either direction. Every call returns a fresh copy.
func (t *Table) Lookup(name string) (Entry, bool) {
	entries, err := load()
	if err != nil {
		return Entry{}, false
	}
	n := Normalize(name)
	if n == "" {
		return Entry{}, false
	}

	for i := range entries {
		if entries[i].Key == n {
			return t.materialize(&entries[i]), true
		}
	}
	for i := range entries {
		for _, a := range entries[i].Aliases {
			if Normalize(a) == n {
				return t.materialize(&entries[i]), true
			}
		}
	}
	for i := range entries {
		k := entries[i].Key
		if strings.Contains(n, k) || strings.Contains(k, n) {
			return t.materialize(&entries[i]), true
		}
	}
	return Entry{}, false
}

// Companies returns the demo quick-pick list in table order.
func Companies() []DemoCompany {
	entries, err := load()
	if err != nil {
		return nil
	}
	out := make([]DemoCompany, 0, len(entries))
	for _, e := range entries {
		out = append(out, DemoCompany{Name: e.Research.Company.Name, Description: e.Blurb, Tag: e.Tag})
	}
	return out
}

func (t *Table) materialize(d *entryDoc) Entry {
	now := t.now().UTC()

	company := d.Research.Company
	company.Size = model.ParseCompanySize(string(company.Size))

	signals := make([]model.IntentSignal, 0, len(d.Research.Signals))
	for i, s := range d.Research.Signals {
		signals = append(signals, model.IntentSignal{
			ID:          stableID(d.Key, "signal", i),
			Type:        model.ParseSignalType(s.Type),
			Strength:    model.ParseSignalStrength(s.Strength),
			Description: s.Description,
			Source:      s.Source,
			DetectedAt:  now.AddDate(0, 0, -s.DetectedDaysAgo),
		})
	}

	contacts := make([]model.Contact, 0, len(d.Research.Contacts))
	for i, c := range d.Research.Contacts {
		contacts = append(contacts, model.Contact{
			ID:         stableID(d.Key, "contact", i),
			Name:       c.Name,
			Title:      c.Title,
			Department: model.ParseDepartment(c.Department),
			Priority:   model.ParseContactPriority(c.Priority),
			Email:      c.Email,
			LinkedIn:   c.LinkedIn,
		})
	}

	research := model.ResearchResult{
		Company:          company,
		Signals:          signals,
		Contacts:         contacts,
		Summary:          d.Research.Summary,
		ResearchedAt:     now,
		ResearchDuration: d.Research.Duration,
	}

	outreach := d.Outreach.Clone()
	outreach.GeneratedAt = now

	return Entry{
		Key:      d.Key,
		Research: research.Clone(),
		Score:    d.Score,
		Outreach: outreach,
	}
}

// stableID keeps ids identical across lookups so repeated runs render the same keys.
func stableID(key, kind string, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key+"/"+kind+"/"+strconv.Itoa(i))).String()
}
