package model

import "time"

// Score bounds.
const (
	MaxOverall   = 100
	MaxComponent = 25
)

// ScoreBreakdown holds the four sub-scores, each in [0,25].
type ScoreBreakdown struct {
	ICPFit               int `json:"icpFit" yaml:"icp_fit"`
	TimingSignals        int `json:"timingSignals" yaml:"timing_signals"`
	BudgetIndicators     int `json:"budgetIndicators" yaml:"budget_indicators"`
	EngagementLikelihood int `json:"engagementLikelihood" yaml:"engagement_likelihood"`
}

// Sum adds the four components.
func (b ScoreBreakdown) Sum() int {
	return b.ICPFit + b.TimingSignals + b.BudgetIndicators + b.EngagementLikelihood
}

// ScoreResult is the intent score for a researched company.
type ScoreResult struct {
	Overall         int            `json:"overall" yaml:"overall"`
	Breakdown       ScoreBreakdown `json:"breakdown" yaml:"breakdown"`
	Reasoning       string         `json:"reasoning" yaml:"reasoning"`
	Recommendation  Recommendation `json:"recommendation" yaml:"recommendation"`
	ConfidenceLevel Confidence     `json:"confidenceLevel" yaml:"confidence_level"`
}

// Clamp forces overall into [0,100] and every component into [0,25].
func (s ScoreResult) Clamp() ScoreResult {
	s.Overall = clamp(s.Overall, 0, MaxOverall)
	s.Breakdown.ICPFit = clamp(s.Breakdown.ICPFit, 0, MaxComponent)
	s.Breakdown.TimingSignals = clamp(s.Breakdown.TimingSignals, 0, MaxComponent)
	s.Breakdown.BudgetIndicators = clamp(s.Breakdown.BudgetIndicators, 0, MaxComponent)
	s.Breakdown.EngagementLikelihood = clamp(s.Breakdown.EngagementLikelihood, 0, MaxComponent)
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// EmailMessage is a single email draft.
type EmailMessage struct {
	Subject string `json:"subject" yaml:"subject"`
	Body    string `json:"body" yaml:"body"`
}

// LinkedInMessages holds the connection request note and the post-accept follow-up.
type LinkedInMessages struct {
	ConnectionNote  string `json:"connectionNote" yaml:"connection_note"`
	FollowUpMessage string `json:"followUpMessage" yaml:"follow_up_message"`
}

// ConnectionNoteLimit is LinkedIn's soft cap on connection note length.
const ConnectionNoteLimit = 280

// Sequence is the three-touch email cadence.
type Sequence struct {
	Day1 EmailMessage `json:"day1" yaml:"day1"`
	Day3 EmailMessage `json:"day3" yaml:"day3"`
	Day7 EmailMessage `json:"day7" yaml:"day7"`
}

// OutreachContent is the generated outreach copy for one target contact.
type OutreachContent struct {
	Email                 EmailMessage     `json:"email" yaml:"email"`
	LinkedIn              LinkedInMessages `json:"linkedin" yaml:"linkedin"`
	Sequence              Sequence         `json:"sequence" yaml:"sequence"`
	PersonalizationPoints []string         `json:"personalizationPoints" yaml:"personalization_points"`
	GeneratedAt           time.Time        `json:"generatedAt" yaml:"-"`
}

// Clone returns a deep copy.
func (o OutreachContent) Clone() OutreachContent {
	out := o
	out.PersonalizationPoints = cloneStrings(o.PersonalizationPoints)
	return out
}
