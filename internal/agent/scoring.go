package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Scoring rates purchase intent from a research result.
type Scoring struct {
	deps
}

// NewScoring creates a scoring agent.
func NewScoring(gw gateway.Gateway, opts ...Option) *Scoring {
	return &Scoring{deps: newDeps(gw, opts)}
}

// Run scores research. The result is always clamped into range.
func (a *Scoring) Run(ctx context.Context, research model.ResearchResult, onProgress ProgressFunc) (model.ScoreResult, model.Source) {
	rep := a.reporter(model.AgentScoring, onProgress)
	rep.step(ctx, 0, "Analyzing ICP fit...")

	if entry, ok := a.lookup(research.Company.Name); ok {
		rep.step(ctx, 50, "Calculating intent score...")
		rep.done("Scoring complete!", model.SourceDataset)
		return entry.Score.Clamp(), model.SourceDataset
	}

	rep.step(ctx, 30, "AI analyzing buying signals...")
	reply, err := a.gw.Score(ctx, research.Clone())
	rep.step(ctx, 70, "Processing score...")
	if err != nil {
		zap.L().Warn("agent: scoring gateway failed, using fallback",
			zap.String("company", research.Company.Name),
			zap.String("provider", a.gw.Provider()),
			zap.Error(err),
		)
		rep.done("Scoring complete!", model.SourceFallback)
		return FallbackScore(research), model.SourceFallback
	}

	score := normalizeScore(research, reply)
	rep.done("Scoring complete!", model.SourceGateway)
	return score, model.SourceGateway
}
