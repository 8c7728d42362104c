package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Research gathers the company profile, intent signals and contacts.
type Research struct {
	deps
}

// NewResearch creates a research agent.
func NewResearch(gw gateway.Gateway, opts ...Option) *Research {
	return &Research{deps: newDeps(gw, opts)}
}

// Run researches company. The second return value names the path that
// produced the result.
func (a *Research) Run(ctx context.Context, company string, onProgress ProgressFunc) (model.ResearchResult, model.Source) {
	rep := a.reporter(model.AgentResearch, onProgress)
	rep.step(ctx, 0, "Initializing research agent...")

	if entry, ok := a.lookup(company); ok {
		rep.step(ctx, 30, "Found in database, loading...")
		rep.step(ctx, 60, "Analyzing company data...")
		rep.step(ctx, 90, "Detecting intent signals...")
		rep.done("Research complete!", model.SourceDataset)
		return entry.Research, model.SourceDataset
	}

	rep.step(ctx, 20, "Connecting to AI model...")
	reply, err := a.gw.Research(ctx, company)
	rep.step(ctx, 50, "AI analyzing company...")
	if err != nil {
		zap.L().Warn("agent: research gateway failed, using fallback",
			zap.String("company", company),
			zap.String("provider", a.gw.Provider()),
			zap.Error(err),
		)
		rep.done("Research complete!", model.SourceFallback)
		return FallbackResearch(company, a.now().UTC(), a.newID), model.SourceFallback
	}

	rep.step(ctx, 80, "Processing research data...")
	research := normalizeResearch(company, reply, a.now().UTC(), a.newID)
	rep.done("Research complete!", model.SourceGateway)
	return research, model.SourceGateway
}
