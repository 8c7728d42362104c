package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Outreach writes personalized copy for a target contact.
type Outreach struct {
	deps
}

// NewOutreach creates an outreach agent.
func NewOutreach(gw gateway.Gateway, opts ...Option) *Outreach {
	return &Outreach{deps: newDeps(gw, opts)}
}

// Run generates outreach addressed to contact.
func (a *Outreach) Run(ctx context.Context, research model.ResearchResult, score model.ScoreResult, contact model.Contact, onProgress ProgressFunc) (model.OutreachContent, model.Source) {
	rep := a.reporter(model.AgentOutreach, onProgress)
	rep.step(ctx, 0, "Analyzing personalization opportunities...")

	if entry, ok := a.lookup(research.Company.Name); ok {
		rep.step(ctx, 50, "Generating personalized content...")
		rep.done("Outreach content ready!", model.SourceDataset)
		return entry.Outreach, model.SourceDataset
	}

	rep.step(ctx, 25, "AI crafting personalized messages...")
	reply, err := a.gw.Outreach(ctx, gateway.OutreachRequest{
		Research: research.Clone(),
		Score:    score,
		Target:   contact,
	})
	rep.step(ctx, 70, "Polishing content...")
	if err != nil {
		zap.L().Warn("agent: outreach gateway failed, using fallback",
			zap.String("company", research.Company.Name),
			zap.String("provider", a.gw.Provider()),
			zap.Error(err),
		)
		rep.done("Outreach content ready!", model.SourceFallback)
		return FallbackOutreach(research, contact, a.now().UTC()), model.SourceFallback
	}

	out := normalizeOutreach(research, contact, reply, a.now().UTC())
	rep.done("Outreach content ready!", model.SourceGateway)
	return out, model.SourceGateway
}
