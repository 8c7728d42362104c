package pipeline

import (
	"sync"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// tracker owns the four agent statuses of one run. Updates are merged the
// way a UI would patch state, but a status never moves backwards and
// progress never decreases.
type tracker struct {
	mu       sync.Mutex
	agents   []model.AgentStatus
	onUpdate func([]model.AgentStatus)
}

func newTracker(onUpdate func([]model.AgentStatus)) *tracker {
	agents := make([]model.AgentStatus, 0, len(model.AgentNames))
	for _, name := range model.AgentNames {
		agents = append(agents, model.AgentStatus{Name: name, Status: model.AgentPending})
	}
	return &tracker{agents: agents, onUpdate: onUpdate}
}

func rank(s model.AgentState) int {
	switch s {
	case model.AgentRunning:
		return 1
	case model.AgentCompleted, model.AgentError:
		return 2
	}
	return 0
}

// update merges s into the slot named s.Name and notifies the caller.
// Updates to a finished agent, or that would regress it, are dropped.
func (t *tracker) update(s model.AgentStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(s.Name)
	if i < 0 {
		return
	}
	cur := t.agents[i]
	if cur.Status.Terminal() || rank(s.Status) < rank(cur.Status) {
		return
	}

	if s.Status != "" {
		cur.Status = s.Status
	}
	cur.Progress = max(cur.Progress, min(s.Progress, 100))
	if s.Message != "" {
		cur.Message = s.Message
	}
	if s.Source != "" {
		cur.Source = s.Source
	}
	if cur.StartedAt == nil && s.StartedAt != nil {
		cur.StartedAt = copyTime(s.StartedAt)
	}
	if s.CompletedAt != nil {
		cur.CompletedAt = copyTime(s.CompletedAt)
	}
	t.agents[i] = cur
	t.notify()
}

// fail marks every agent that is currently running as errored.
func (t *tracker) fail(msg string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := false
	for i := range t.agents {
		if t.agents[i].Status != model.AgentRunning {
			continue
		}
		t.agents[i].Status = model.AgentError
		t.agents[i].Message = msg
		t.agents[i].CompletedAt = copyTime(&at)
		changed = true
	}
	if changed {
		t.notify()
	}
}

// emit sends the current snapshot without changing anything.
func (t *tracker) emit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify()
}

func (t *tracker) snapshot() []model.AgentStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyAgents()
}

// notify runs under t.mu so callers observe updates in order.
func (t *tracker) notify() {
	if t.onUpdate != nil {
		t.onUpdate(t.copyAgents())
	}
}

func (t *tracker) copyAgents() []model.AgentStatus {
	out := make([]model.AgentStatus, len(t.agents))
	for i, a := range t.agents {
		a.StartedAt = copyTime(a.StartedAt)
		a.CompletedAt = copyTime(a.CompletedAt)
		out[i] = a
	}
	return out
}

func (t *tracker) index(name model.AgentName) int {
	for i := range t.agents {
		if t.agents[i].Name == name {
			return i
		}
	}
	return -1
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
