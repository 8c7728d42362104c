package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/outreach-cli/internal/model"
)

// fallbackDuration marks research synthesized locally.
const fallbackDuration = 8

// FallbackResearch builds research for name without any network call.
func FallbackResearch(name string, now time.Time, newID func() string) model.ResearchResult {
	name = strings.TrimSpace(name)
	contact := model.PlaceholderContact()
	contact.ID = newID()

	return model.ResearchResult{
		Company: model.Company{
			Name:          name,
			Domain:        syntheticDomain(name),
			Industry:      "Technology",
			Size:          model.SizeMidmarket,
			Description:   name + " is a technology company focused on innovative solutions.",
			PainPoints:    []string{"Scaling operations efficiently", "Improving team productivity", "Growing revenue"},
			Opportunities: []string{"Sales automation", "Lead generation", "Process optimization"},
			TechStack:     []string{"Modern stack"},
		},
		Signals: []model.IntentSignal{{
			ID:          newID(),
			Type:        model.SignalWebsiteVisit,
			Strength:    model.StrengthMedium,
			Description: "Company is being actively researched",
			Source:      "Manual Research",
			DetectedAt:  now,
		}},
		Contacts:         []model.Contact{contact},
		Summary:          name + " has been identified as a potential prospect. Further research recommended.",
		ResearchedAt:     now,
		ResearchDuration: fallbackDuration,
	}
}

// FallbackScore derives a score from signal count and company size.
func FallbackScore(r model.ResearchResult) model.ScoreResult {
	n := len(r.Signals)
	bonus := r.Company.Size.Bonus()
	overall := max(40, min(model.MaxOverall, 40+8*n+bonus))

	confidence := model.ConfidenceMedium
	if n >= 3 {
		confidence = model.ConfidenceHigh
	}

	return model.ScoreResult{
		Overall: overall,
		Breakdown: model.ScoreBreakdown{
			ICPFit:               min(model.MaxComponent, 15+bonus/2),
			TimingSignals:        min(model.MaxComponent, 8*n),
			BudgetIndicators:     min(model.MaxComponent, 12+bonus/2),
			EngagementLikelihood: 13,
		},
		Reasoning:       fmt.Sprintf("%s shows %d buying signals. Company size (%s) indicates potential.", r.Company.Name, n, r.Company.Size),
		Recommendation:  model.Recommend(overall),
		ConfidenceLevel: confidence,
	}.Clamp()
}

// FallbackOutreach writes generic copy addressed to contact.
func FallbackOutreach(r model.ResearchResult, contact model.Contact, now time.Time) model.OutreachContent {
	first := model.FirstName(contact.Name)
	company := r.Company.Name

	hook := "your company caught my attention"
	if len(r.Signals) > 0 && r.Signals[0].Description != "" {
		hook = strings.ToLower(r.Signals[0].Description)
	}

	industry := r.Company.Industry
	if industry == "" {
		industry = "growing"
	}

	points := r.SignalDescriptions()
	if len(points) == 0 {
		points = []string{company}
	}

	subject := "Quick question about " + company
	return model.OutreachContent{
		Email: model.EmailMessage{
			Subject: subject,
			Body: fmt.Sprintf("Hi %s,\n\nI came across %s and noticed %s.\n\n"+
				"We help companies like yours with sales intelligence and prospecting efficiency. "+
				"Would a quick 15-minute call be worth it to see if there's a fit?\n\nBest,", first, company, hook),
		},
		LinkedIn: model.LinkedInMessages{
			ConnectionNote:  fmt.Sprintf("Hi %s, noticed some interesting things happening at %s. Would love to connect!", first, company),
			FollowUpMessage: fmt.Sprintf("Thanks for connecting! Would love to share how we help %s companies with their sales process. Worth a quick chat?", industry),
		},
		Sequence: model.Sequence{
			Day1: model.EmailMessage{
				Subject: subject,
				Body:    fmt.Sprintf("Hi %s,\n\nNoticed %s and wanted to reach out about something relevant.\n\nWorth a quick chat?\n\nBest,", first, company),
			},
			Day3: model.EmailMessage{
				Subject: "Following up",
				Body:    fmt.Sprintf("Hi %s,\n\nQuick follow-up on my last note. Would love to connect.\n\nBest,", first),
			},
			Day7: model.EmailMessage{
				Subject: "Last note + a resource",
				Body:    fmt.Sprintf("Hi %s,\n\nLast follow-up: if the timing ever makes sense, I'm here.\n\nWishing you the best!\n\nCheers,", first),
			},
		},
		PersonalizationPoints: points,
		GeneratedAt:           now,
	}
}

func syntheticDomain(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "")) + ".com"
}
