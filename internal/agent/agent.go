// Package agent implements the research, scoring and outreach stages. Each
// stage resolves through the demo dataset, then the gateway, then a local
// fallback, and always returns a usable result.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/outreach-cli/internal/dataset"
	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

// ProgressFunc receives every status change of a stage. It may be nil.
type ProgressFunc func(model.AgentStatus)

// LookupFunc resolves a company name against the demo dataset.
type LookupFunc func(name string) (dataset.Entry, bool)

type deps struct {
	gw     gateway.Gateway
	lookup LookupFunc
	now    func() time.Time
	newID  func() string
	pace   time.Duration
}

// Option configures an agent.
type Option func(*deps)

// WithLookup replaces the demo dataset lookup.
func WithLookup(fn LookupFunc) Option {
	return func(d *deps) { d.lookup = fn }
}

// WithClock sets the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithIDs sets the id generator for signals and contacts.
func WithIDs(newID func() string) Option {
	return func(d *deps) { d.newID = newID }
}

// WithPace inserts a delay after every intermediate progress event.
func WithPace(p time.Duration) Option {
	return func(d *deps) { d.pace = p }
}

func newDeps(gw gateway.Gateway, opts []Option) deps {
	d := deps{
		gw:     gw,
		lookup: dataset.Lookup,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

// reporter emits monotonic progress for one stage.
type reporter struct {
	name    model.AgentName
	fn      ProgressFunc
	now     func() time.Time
	pace    time.Duration
	started time.Time
	last    int
}

func (d deps) reporter(name model.AgentName, fn ProgressFunc) *reporter {
	return &reporter{name: name, fn: fn, now: d.now, pace: d.pace, started: d.now().UTC()}
}

// step reports a running status and then waits out the pace, returning early
// if ctx is done.
func (r *reporter) step(ctx context.Context, progress int, msg string) {
	if progress < r.last {
		progress = r.last
	}
	r.last = progress
	r.emit(model.AgentStatus{Status: model.AgentRunning, Progress: progress, Message: msg})
	r.wait(ctx)
}

func (r *reporter) done(msg string, src model.Source) {
	r.last = 100
	completed := r.now().UTC()
	r.emit(model.AgentStatus{
		Status:      model.AgentCompleted,
		Progress:    100,
		Message:     msg,
		Source:      src,
		CompletedAt: &completed,
	})
}

func (r *reporter) emit(s model.AgentStatus) {
	if r.fn == nil {
		return
	}
	s.Name = r.name
	started := r.started
	s.StartedAt = &started
	r.fn(s)
}

func (r *reporter) wait(ctx context.Context) {
	if r.pace <= 0 {
		return
	}
	t := time.NewTimer(r.pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
