package gateway

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"strings"

	"github.com/rotisserie/eris"
)

// StubCompleter answers every prompt offline with a plausible JSON reply
// derived from the company name. It lets the CLI and server run without
// credentials.
type StubCompleter struct{}

// NewStubCompleter returns the offline completer.
func NewStubCompleter() *StubCompleter { return &StubCompleter{} }

// Name implements Completer.
func (*StubCompleter) Name() string { return "stub" }

// Complete implements Completer.
func (*StubCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := strings.TrimSpace(p.Subject)
	var reply any
	switch p.Stage {
	case StageResearch:
		reply = stubResearch(name)
	case StageScore:
		reply = stubScore(name)
	case StageOutreach:
		reply = stubOutreach(name)
	default:
		return "", eris.Errorf("gateway: stub has no reply for stage %q", p.Stage)
	}

	b, err := json.Marshal(reply)
	if err != nil {
		return "", eris.Wrap(err, "gateway: stub marshal")
	}
	return string(b), nil
}

// seed spreads names across a small range so different companies get
// different, but repeatable, scores.
func seed(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return int(h.Sum32() % 8)
}

func stubResearch(name string) map[string]any {
	domain := strings.ToLower(strings.Join(strings.Fields(name), "")) + ".com"
	return map[string]any{
		"company": map[string]any{
			"name":          name,
			"domain":        domain,
			"industry":      "Software",
			"size":          []string{"startup", "smb", "midmarket", "enterprise"}[seed(name)%4],
			"description":   name + " builds software for growing teams.",
			"painPoints":    []string{"Pipeline visibility", "Ramp time for new reps", "Manual prospect research"},
			"opportunities": []string{"Automated account research", "Signal-based prioritization", "Personalized outreach at scale"},
			"techStack":     []string{"Salesforce", "Slack", "Google Workspace"},
		},
		"signals": []map[string]any{
			{"type": "hiring", "strength": "high", "description": "Hiring account executives in two regions", "source": "Careers page"},
			{"type": "techChange", "strength": "medium", "description": "Evaluating a new CRM", "source": "Job descriptions"},
		},
		"contacts": []map[string]any{
			{"name": "Jordan Lee", "title": "VP of Sales", "department": "sales", "priority": "primary"},
			{"name": "Sam Patel", "title": "Head of Revenue Operations", "department": "operations", "priority": "secondary"},
		},
		"summary": name + " is scaling its sales team and is a reasonable account to work this quarter.",
	}
}

func stubScore(name string) map[string]any {
	s := seed(name)
	icp, timing, budget, engage := 14+s, 12+s, 11+s, 10+s
	return map[string]any{
		"overall": icp + timing + budget + engage,
		"breakdown": map[string]any{
			"icpFit":               icp,
			"timingSignals":        timing,
			"budgetIndicators":     budget,
			"engagementLikelihood": engage,
		},
		"reasoning":       name + " is hiring sales capacity and reviewing its tooling.",
		"confidenceLevel": "medium",
	}
}

func stubOutreach(name string) map[string]any {
	return map[string]any{
		"email": map[string]any{
			"subject": "Scaling the sales team at " + name,
			"body":    "Hi there,\n\nSaw that " + name + " is hiring account executives in two regions. Teams at that stage usually lose hours to manual research.\n\nWorth a 15-minute call to compare notes?\n\nBest,",
		},
		"linkedin": map[string]any{
			"connectionNote":  "Noticed " + name + " is growing the sales team. Would be glad to connect.",
			"followUpMessage": "Thanks for connecting! Happy to share how similar teams cut research time.",
		},
		"sequence": map[string]any{
			"day1": map[string]any{"subject": "Scaling the sales team at " + name, "body": "Intro email."},
			"day3": map[string]any{"subject": "Following up", "body": "Short bump with one data point."},
			"day7": map[string]any{"subject": "Last note + a resource", "body": "Sharing a guide and closing the loop."},
		},
		"personalizationPoints": []string{"Hiring account executives", "Evaluating a new CRM"},
	}
}
