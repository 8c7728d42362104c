package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// LLM is the Gateway backed by a Completer. Each call gets its own deadline,
// transient failures are retried, and a per-provider breaker sheds load
// when the backend keeps failing.
type LLM struct {
	completer Completer
	timeout   time.Duration
	retry     resilience.RetryConfig
	breaker   *resilience.Breaker
}

// Option configures an LLM.
type Option func(*LLM)

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(g *LLM) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRetry replaces the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *LLM) { g.retry = cfg }
}

// WithBreaker sets the circuit breaker shared by every call.
func WithBreaker(b *resilience.Breaker) Option {
	return func(g *LLM) { g.breaker = b }
}

// New returns an LLM gateway over c.
func New(c Completer, opts ...Option) *LLM {
	g := &LLM{
		completer: c,
		timeout:   30 * time.Second,
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.breaker == nil {
		g.breaker = resilience.NewBreaker(c.Name(), resilience.DefaultBreakerConfig())
	}
	return g
}

// Provider implements Gateway.
func (g *LLM) Provider() string { return g.completer.Name() }

// Research implements Gateway.
func (g *LLM) Research(ctx context.Context, company string) (*ResearchReply, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, ErrEmptyCompany
	}
	raw, err := g.complete(ctx, researchPrompt(company))
	if err != nil {
		return nil, err
	}
	return Decode[ResearchReply](raw)
}

// Score implements Gateway.
func (g *LLM) Score(ctx context.Context, research model.ResearchResult) (*ScoreReply, error) {
	raw, err := g.complete(ctx, scorePrompt(research))
	if err != nil {
		return nil, err
	}
	return Decode[ScoreReply](raw)
}

// Outreach implements Gateway.
func (g *LLM) Outreach(ctx context.Context, req OutreachRequest) (*OutreachReply, error) {
	raw, err := g.complete(ctx, outreachPrompt(req))
	if err != nil {
		return nil, err
	}
	return Decode[OutreachReply](raw)
}

func (g *LLM) complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	retry := g.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(g.completer.Name(), string(p.Stage))
	}

	start := time.Now()
	raw, err := resilience.Execute(ctx, g.breaker, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
			return g.completer.Complete(ctx, p)
		})
	})
	if err != nil {
		return "", eris.Wrapf(err, "gateway: %s", p.Stage)
	}

	zap.L().Debug("gateway: completion",
		zap.String("provider", g.completer.Name()),
		zap.String("stage", string(p.Stage)),
		zap.String("company", p.Subject),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("reply_bytes", len(raw)),
	)
	return raw, nil
}
