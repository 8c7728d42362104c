package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func TestTracker_InitialState(t *testing.T) {
	tr := newTracker(nil)
	got := tr.snapshot()
	require.Len(t, got, 4)
	for i, a := range got {
		assert.Equal(t, model.AgentNames[i], a.Name)
		assert.Equal(t, model.AgentPending, a.Status)
		assert.Zero(t, a.Progress)
	}
}

func TestTracker_NoRegression(t *testing.T) {
	var last []model.AgentStatus
	tr := newTracker(func(a []model.AgentStatus) { last = a })

	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentRunning, Progress: 60, Message: "a"})
	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentRunning, Progress: 30, Message: "b"})
	assert.Equal(t, 60, last[0].Progress)
	assert.Equal(t, "b", last[0].Message)

	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentPending})
	assert.Equal(t, model.AgentRunning, tr.snapshot()[0].Status)

	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentCompleted, Progress: 100})
	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentRunning, Progress: 10, Message: "late"})
	got := tr.snapshot()[0]
	assert.Equal(t, model.AgentCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "b", got.Message)
}

func TestTracker_UnknownAgentIgnored(t *testing.T) {
	calls := 0
	tr := newTracker(func([]model.AgentStatus) { calls++ })
	tr.update(model.AgentStatus{Name: "billing", Status: model.AgentRunning})
	assert.Zero(t, calls)
}

func TestTracker_FailMarksRunningOnly(t *testing.T) {
	tr := newTracker(nil)
	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentCompleted, Progress: 100})
	tr.update(model.AgentStatus{Name: model.AgentScoring, Status: model.AgentRunning, Progress: 30})

	tr.fail("boom", time.Now())
	got := tr.snapshot()
	assert.Equal(t, model.AgentCompleted, got[0].Status)
	assert.Equal(t, model.AgentError, got[1].Status)
	assert.Equal(t, "boom", got[1].Message)
	assert.NotNil(t, got[1].CompletedAt)
	assert.Equal(t, model.AgentPending, got[2].Status)
}

func TestTracker_SnapshotIsolation(t *testing.T) {
	tr := newTracker(nil)
	started := time.Now()
	tr.update(model.AgentStatus{Name: model.AgentResearch, Status: model.AgentRunning, StartedAt: &started})

	snap := tr.snapshot()
	*snap[0].StartedAt = time.Time{}
	snap[0].Progress = 99

	again := tr.snapshot()
	assert.Equal(t, started, *again[0].StartedAt)
	assert.Zero(t, again[0].Progress)
}
