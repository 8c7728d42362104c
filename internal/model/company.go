package model

import (
	"strings"
	"time"
)

// Company is the researched profile of a prospect account.
type Company struct {
	Name          string      `json:"name" yaml:"name"`
	Domain        string      `json:"domain" yaml:"domain"`
	Industry      string      `json:"industry" yaml:"industry"`
	Size          CompanySize `json:"size" yaml:"size"`
	Description   string      `json:"description" yaml:"description"`
	PainPoints    []string    `json:"painPoints" yaml:"pain_points"`
	Opportunities []string    `json:"opportunities" yaml:"opportunities"`
	TechStack     []string    `json:"techStack" yaml:"tech_stack"`
	Founded       string      `json:"founded,omitempty" yaml:"founded"`
	Employees     string      `json:"employees,omitempty" yaml:"employees"`
	Revenue       string      `json:"revenue,omitempty" yaml:"revenue"`
	Location      string      `json:"location,omitempty" yaml:"location"`
}

// IntentSignal is one piece of evidence that a company may be buying.
type IntentSignal struct {
	ID          string         `json:"id"`
	Type        SignalType     `json:"type"`
	Strength    SignalStrength `json:"strength"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	DetectedAt  time.Time      `json:"detectedAt"`
}

// Contact is a person at the prospect worth reaching out to.
type Contact struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Title      string          `json:"title"`
	Department Department      `json:"department"`
	Priority   ContactPriority `json:"priority"`
	Email      string          `json:"email,omitempty"`
	LinkedIn   string          `json:"linkedin,omitempty"`
}

// PlaceholderContactID identifies the synthesized contact used when research found nobody.
const PlaceholderContactID = "default"

// PlaceholderContact returns the generic primary executive used when research
// yields no contacts.
func PlaceholderContact() Contact {
	return Contact{
		ID:         PlaceholderContactID,
		Name:       "Decision Maker",
		Title:      "Executive",
		Department: DeptExecutive,
		Priority:   PriorityPrimary,
	}
}

// FirstName returns the first whitespace-separated word of name, or "there".
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// ResearchResult is the output of the research stage and the sole input to
// scoring and outreach.
type ResearchResult struct {
	Company          Company        `json:"company"`
	Signals          []IntentSignal `json:"signals"`
	Contacts         []Contact      `json:"contacts"`
	Summary          string         `json:"summary"`
	ResearchedAt     time.Time      `json:"researchedAt"`
	ResearchDuration int            `json:"researchDuration"`
}

// Clone returns a deep copy.
func (r ResearchResult) Clone() ResearchResult {
	out := r
	out.Company.PainPoints = cloneStrings(r.Company.PainPoints)
	out.Company.Opportunities = cloneStrings(r.Company.Opportunities)
	out.Company.TechStack = cloneStrings(r.Company.TechStack)
	if r.Signals != nil {
		out.Signals = append([]IntentSignal(nil), r.Signals...)
	}
	if r.Contacts != nil {
		out.Contacts = append([]Contact(nil), r.Contacts...)
	}
	return out
}

// WithContacts returns a copy of r whose contact list is guaranteed non-empty.
func (r ResearchResult) WithContacts() ResearchResult {
	out := r.Clone()
	if len(out.Contacts) == 0 {
		out.Contacts = []Contact{PlaceholderContact()}
	}
	return out
}

// TargetContact is the first contact, or the placeholder when there are none.
func (r ResearchResult) TargetContact() Contact {
	if len(r.Contacts) == 0 {
		return PlaceholderContact()
	}
	return r.Contacts[0]
}

// SignalDescriptions lists the description of every signal in order.
func (r ResearchResult) SignalDescriptions() []string {
	out := make([]string, 0, len(r.Signals))
	for _, s := range r.Signals {
		out = append(out, s.Description)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
