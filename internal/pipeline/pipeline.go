// Package pipeline sequences the stage agents for one company and
// aggregates their progress into a single PipelineState.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/agent"
	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrCompanyRequired is reported for a blank company name.
var ErrCompanyRequired = eris.New("company name is required")

// Sink receives research results for best-effort persistence.
type Sink interface {
	Persist(ctx context.Context, research model.ResearchResult) error
}

// RunRecorder stores finished runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, state model.PipelineState) error
}

// Orchestrator runs research, contacts, scoring and outreach in order.
// It is safe for concurrent use; runs share no mutable state.
type Orchestrator struct {
	research *agent.Research
	scoring  *agent.Scoring
	outreach *agent.Outreach

	sink           Sink
	runs           RunRecorder
	now            func() time.Time
	newID          func() string
	persistTimeout time.Duration
	agentOpts      []agent.Option

	wg sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSink persists gateway research in the background.
func WithSink(s Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithStore records every finished run in the background.
func WithStore(r RunRecorder) Option {
	return func(o *Orchestrator) { o.runs = r }
}

// WithClock sets the clock for the orchestrator and its agents.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
		o.agentOpts = append(o.agentOpts, agent.WithClock(now))
	}
}

// WithIDs sets the id generator for runs, signals and contacts.
func WithIDs(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
		o.agentOpts = append(o.agentOpts, agent.WithIDs(newID))
	}
}

// WithPace delays every intermediate progress event.
func WithPace(d time.Duration) Option {
	return func(o *Orchestrator) { o.agentOpts = append(o.agentOpts, agent.WithPace(d)) }
}

// WithLookup replaces the demo dataset lookup.
func WithLookup(fn agent.LookupFunc) Option {
	return func(o *Orchestrator) { o.agentOpts = append(o.agentOpts, agent.WithLookup(fn)) }
}

// WithPersistTimeout bounds each background task.
func WithPersistTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.persistTimeout = d
		}
	}
}

// New creates an Orchestrator whose agents call gw.
func New(gw gateway.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		now:            time.Now,
		newID:          uuid.NewString,
		persistTimeout: 20 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.research = agent.NewResearch(gw, o.agentOpts...)
	o.scoring = agent.NewScoring(gw, o.agentOpts...)
	o.outreach = agent.NewOutreach(gw, o.agentOpts...)
	return o
}

// Run executes the pipeline for company. onUpdate, if set, receives a copy
// of all four agent statuses after every change. Stage failures are absorbed
// by the agents; the returned state is only in error for a blank name or a
// defect that escapes a stage.
func (o *Orchestrator) Run(ctx context.Context, company string, onUpdate func([]model.AgentStatus)) (state model.PipelineState) {
	// Held for the whole run so Wait also covers runs still in flight.
	o.wg.Add(1)
	defer o.wg.Done()

	tr := newTracker(onUpdate)
	state = model.PipelineState{
		RunID:     o.newID(),
		Company:   company,
		Status:    model.PipelineRunning,
		StartedAt: o.now().UTC(),
	}
	log := zap.L().With(zap.String("company", company), zap.String("run_id", state.RunID))
	tr.emit()

	name := strings.TrimSpace(company)
	if name == "" {
		return o.failed(state, tr, ErrCompanyRequired.Error())
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: stage panicked", zap.Any("panic", r), zap.Stack("stack"))
			msg := fmt.Sprintf("pipeline: unexpected failure: %v", r)
			tr.fail(msg, o.now().UTC())
			state = o.failed(state, tr, msg)
			o.record(state, log)
		}
	}()

	log.Info("pipeline: starting run")
	start := time.Now()

	research, src := o.research.Run(ctx, name, forward(tr, model.AgentResearch))
	log.Info("pipeline: stage complete", zap.String("stage", "research"), zap.String("source", string(src)))
	if src == model.SourceGateway {
		o.persist(research, log)
	}

	tr.update(model.AgentStatus{Name: model.AgentContacts, Status: model.AgentRunning, Progress: 50, Message: "Extracting contacts..."})
	research = research.WithContacts()
	completed := o.now().UTC()
	tr.update(model.AgentStatus{
		Name:        model.AgentContacts,
		Status:      model.AgentCompleted,
		Progress:    100,
		Message:     fmt.Sprintf("%d contacts identified", len(research.Contacts)),
		Source:      model.SourceDerived,
		CompletedAt: &completed,
	})

	score, src := o.scoring.Run(ctx, research, forward(tr, model.AgentScoring))
	log.Info("pipeline: stage complete", zap.String("stage", "scoring"), zap.String("source", string(src)))

	target := research.TargetContact()
	outreach, src := o.outreach.Run(ctx, research, score, target, forward(tr, model.AgentOutreach))
	log.Info("pipeline: stage complete", zap.String("stage", "outreach"), zap.String("source", string(src)))

	done := o.now().UTC()
	state.Status = model.PipelineCompleted
	state.Agents = tr.snapshot()
	state.Research = &research
	state.Score = &score
	state.Outreach = &outreach
	state.CompletedAt = &done

	log.Info("pipeline: run complete",
		zap.Int("overall", score.Overall),
		zap.String("recommendation", string(score.Recommendation)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	o.record(state, log)
	return state
}

func (o *Orchestrator) failed(state model.PipelineState, tr *tracker, msg string) model.PipelineState {
	done := o.now().UTC()
	return model.PipelineState{
		RunID:       state.RunID,
		Company:     state.Company,
		Status:      model.PipelineError,
		Agents:      tr.snapshot(),
		Error:       msg,
		StartedAt:   state.StartedAt,
		CompletedAt: &done,
	}
}

// forward pins progress events to one agent slot.
func forward(tr *tracker, name model.AgentName) agent.ProgressFunc {
	return func(s model.AgentStatus) {
		s.Name = name
		tr.update(s)
	}
}
