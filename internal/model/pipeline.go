package model

import "time"

// AgentName identifies one of the four pipeline stages.
type AgentName string

const (
	AgentResearch AgentName = "research"
	AgentScoring  AgentName = "scoring"
	AgentContacts AgentName = "contacts"
	AgentOutreach AgentName = "outreach"
)

// AgentNames lists the stages in the order they appear in PipelineState.Agents.
var AgentNames = []AgentName{AgentResearch, AgentScoring, AgentContacts, AgentOutreach}

// AgentState is the lifecycle state of a single stage.
type AgentState string

const (
	AgentPending   AgentState = "pending"
	AgentRunning   AgentState = "running"
	AgentCompleted AgentState = "completed"
	AgentError     AgentState = "error"
)

// Terminal reports whether no further transitions are allowed.
func (s AgentState) Terminal() bool {
	return s == AgentCompleted || s == AgentError
}

// Source records which path produced a stage's content.
type Source string

const (
	SourceDataset  Source = "dataset"
	SourceGateway  Source = "gateway"
	SourceFallback Source = "fallback"
	SourceDerived  Source = "derived"
)

// AgentStatus is the progress report for one stage.
type AgentStatus struct {
	Name        AgentName  `json:"name"`
	Status      AgentState `json:"status"`
	Progress    int        `json:"progress"`
	Message     string     `json:"message,omitempty"`
	Source      Source     `json:"source,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// PipelineStatus is the aggregate state of a run.
type PipelineStatus string

const (
	PipelineIdle      PipelineStatus = "idle"
	PipelineRunning   PipelineStatus = "running"
	PipelineCompleted PipelineStatus = "completed"
	PipelineError     PipelineStatus = "error"
)

// PipelineState is everything a caller needs to render a run.
type PipelineState struct {
	RunID       string           `json:"runId"`
	Company     string           `json:"companyName"`
	Status      PipelineStatus   `json:"status"`
	Agents      []AgentStatus    `json:"agents"`
	Research    *ResearchResult  `json:"research,omitempty"`
	Score       *ScoreResult     `json:"score,omitempty"`
	Outreach    *OutreachContent `json:"outreach,omitempty"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// Agent returns the status for name, or false if absent.
func (p PipelineState) Agent(name AgentName) (AgentStatus, bool) {
	for _, a := range p.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentStatus{}, false
}

// RunSummary is the compact listing form of a stored run.
type RunSummary struct {
	ID             string         `json:"id"`
	Company        string         `json:"companyName"`
	Status         PipelineStatus `json:"status"`
	Overall        int            `json:"overall"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
