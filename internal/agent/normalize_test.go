package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestNormalizeScore_BreakdownMismatchLogged(t *testing.T) {
	logs := observeLogs(t)
	overall := gateway.FlexInt(90)
	reply := &gateway.ScoreReply{
		Overall:   &overall,
		Breakdown: &gateway.BreakdownReply{ICPFit: 10, TimingSignals: 10, BudgetIndicators: 10, EngagementLikelihood: 10},
	}

	s := normalizeScore(model.ResearchResult{Company: model.Company{Name: "Acme"}}, reply)
	assert.Equal(t, 90, s.Overall)
	assert.Equal(t, 40, s.Breakdown.Sum())

	entries := logs.FilterMessage("agent: score breakdown does not add up to overall").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(90), fields["overall"])
	assert.Equal(t, int64(40), fields["breakdown_sum"])
}

func TestNormalizeScore_ConsistentBreakdownQuiet(t *testing.T) {
	logs := observeLogs(t)
	overall := gateway.FlexInt(64)
	reply := &gateway.ScoreReply{
		Overall:   &overall,
		Breakdown: &gateway.BreakdownReply{ICPFit: 18, TimingSignals: 16, BudgetIndicators: 15, EngagementLikelihood: 15},
	}

	s := normalizeScore(model.ResearchResult{Company: model.Company{Name: "Acme"}}, reply)
	assert.Equal(t, s.Overall, s.Breakdown.Sum())
	assert.Zero(t, logs.Len())
}
