package gateway

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string or number. Models return employee counts
// and founding years either way.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexInt accepts an integer, a float or a numeric string and rounds to int.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if v < 0 {
		*f = FlexInt(v - 0.5)
	} else {
		*f = FlexInt(v + 0.5)
	}
	return nil
}

// ResearchReply is the decoded research stage reply.
type ResearchReply struct {
	Company  *CompanyReply  `json:"company" validate:"required"`
	Signals  []SignalReply  `json:"signals"`
	Contacts []ContactReply `json:"contacts"`
	Summary  string         `json:"summary"`
}

// CompanyReply is the company block of a research reply.
type CompanyReply struct {
	Name          string     `json:"name"`
	Domain        string     `json:"domain"`
	Industry      string     `json:"industry"`
	Size          string     `json:"size"`
	Description   string     `json:"description"`
	PainPoints    []string   `json:"painPoints"`
	Opportunities []string   `json:"opportunities"`
	TechStack     []string   `json:"techStack"`
	Founded       FlexString `json:"founded"`
	Employees     FlexString `json:"employees"`
	Revenue       FlexString `json:"revenue"`
	Location      string     `json:"location"`
}

// SignalReply is one intent signal as the model reported it.
type SignalReply struct {
	Type        string `json:"type"`
	Strength    string `json:"strength"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// ContactReply is one contact as the model reported it.
type ContactReply struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Priority   string `json:"priority"`
	Email      string `json:"email"`
	LinkedIn   string `json:"linkedin"`
}

// ScoreReply is the decoded scoring stage reply.
type ScoreReply struct {
	Overall         *FlexInt        `json:"overall" validate:"required"`
	Breakdown       *BreakdownReply `json:"breakdown" validate:"required"`
	Reasoning       string          `json:"reasoning"`
	Recommendation  string          `json:"recommendation"`
	ConfidenceLevel string          `json:"confidenceLevel"`
}

// BreakdownReply holds the four sub-scores.
type BreakdownReply struct {
	ICPFit               FlexInt `json:"icpFit"`
	TimingSignals        FlexInt `json:"timingSignals"`
	BudgetIndicators     FlexInt `json:"budgetIndicators"`
	EngagementLikelihood FlexInt `json:"engagementLikelihood"`
}

// OutreachReply is the decoded outreach stage reply.
type OutreachReply struct {
	Email                 *EmailReply    `json:"email" validate:"required"`
	LinkedIn              *LinkedInReply `json:"linkedin"`
	Sequence              *SequenceReply `json:"sequence"`
	PersonalizationPoints []string       `json:"personalizationPoints"`
}

// EmailReply is a subject and body pair.
type EmailReply struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

// LinkedInReply is the LinkedIn pair.
type LinkedInReply struct {
	ConnectionNote  string `json:"connectionNote"`
	FollowUpMessage string `json:"followUpMessage"`
}

// SequenceReply is the three-touch cadence. Any day may be missing or partial.
type SequenceReply struct {
	Day1 *DraftReply `json:"day1"`
	Day3 *DraftReply `json:"day3"`
	Day7 *DraftReply `json:"day7"`
}

// DraftReply is an unvalidated subject and body pair.
type DraftReply struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
