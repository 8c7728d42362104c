package gateway

import (
	"fmt"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

const systemPrompt = `You are a B2B sales intelligence assistant working for a sales team.
Reply with a single JSON object and nothing else: no markdown fences, no commentary.`

func researchPrompt(company string) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an elite B2B sales research analyst. Research %q and produce a sales intelligence brief.\n\n", company)
	b.WriteString(`Return this EXACT JSON structure:
{
  "company": {
    "name": "official company name",
    "domain": "company.com",
    "industry": "primary industry",
    "size": "startup | smb | midmarket | enterprise",
    "description": "two sentences on what the company does",
    "painPoints": ["3-4 likely sales and growth pain points"],
    "opportunities": ["3-4 ways a sales intelligence product could help"],
    "techStack": ["known or likely tools"],
    "founded": "year",
    "employees": "approximate headcount",
    "revenue": "approximate annual revenue",
    "location": "headquarters city"
  },
  "signals": [
    {
      "type": "` + signalTypeChoices() + `",
      "strength": "high | medium | low",
      "description": "specific, recent, verifiable buying signal",
      "source": "where the signal comes from"
    }
  ],
  "contacts": [
    {
      "name": "full name",
      "title": "job title",
      "department": "sales | marketing | engineering | executive | operations | finance | hr",
      "priority": "primary | secondary | influencer",
      "linkedin": "profile URL if known"
    }
  ],
  "summary": "two sentences on why this account is or is not worth pursuing now"
}

Include 3-5 signals and 2-4 contacts. Prefer real, public information.`)

	return Prompt{
		Stage:       StageResearch,
		Subject:     company,
		System:      systemPrompt,
		User:        b.String(),
		Temperature: 0.7,
		MaxTokens:   1500,
	}
}

func signalTypeChoices() string {
	types := model.SignalTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, " | ")
}

func scorePrompt(r model.ResearchResult) Prompt {
	var b strings.Builder
	b.WriteString("Score this company's purchase intent for a B2B sales intelligence product.\n\n")
	fmt.Fprintf(&b, "Company: %s\n", r.Company.Name)
	fmt.Fprintf(&b, "Industry: %s\n", r.Company.Industry)
	fmt.Fprintf(&b, "Size: %s\n", r.Company.Size)
	fmt.Fprintf(&b, "Description: %s\n\n", r.Company.Description)

	b.WriteString("Signals:\n")
	if len(r.Signals) == 0 {
		b.WriteString("- none detected\n")
	}
	for _, s := range r.Signals {
		fmt.Fprintf(&b, "- %s: %s\n", s.Type, s.Description)
	}

	b.WriteString("\nPain points:\n")
	for _, p := range r.Company.PainPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}

	b.WriteString(`
Score four dimensions from 0 to 25 each: icpFit, timingSignals, budgetIndicators, engagementLikelihood.
overall is their sum (0-100).

Return this EXACT JSON structure:
{
  "overall": 0,
  "breakdown": {"icpFit": 0, "timingSignals": 0, "budgetIndicators": 0, "engagementLikelihood": 0},
  "reasoning": "two sentences explaining the score",
  "recommendation": "hot | warm | nurture | disqualify",
  "confidenceLevel": "high | medium | low"
}`)

	return Prompt{
		Stage:       StageScore,
		Subject:     r.Company.Name,
		System:      systemPrompt,
		User:        b.String(),
		Temperature: 0.5,
		MaxTokens:   500,
	}
}

func outreachPrompt(req OutreachRequest) Prompt {
	r := req.Research
	pains := r.Company.PainPoints
	if len(pains) > 2 {
		pains = pains[:2]
	}

	var b strings.Builder
	b.WriteString("You are an elite SDR writing first-touch outreach.\n\n")
	fmt.Fprintf(&b, "Prospect: %s, %s at %s\n", req.Target.Name, req.Target.Title, r.Company.Name)
	fmt.Fprintf(&b, "Company: %s (%s, %s)\n", r.Company.Name, r.Company.Industry, r.Company.Size)
	fmt.Fprintf(&b, "Recent signals: %s\n", strings.Join(r.SignalDescriptions(), "; "))
	fmt.Fprintf(&b, "Pain points: %s\n", strings.Join(pains, "; "))
	fmt.Fprintf(&b, "Intent score: %d/100 (%s)\n", req.Score.Overall, req.Score.Recommendation)

	b.WriteString(`
Rules:
1. Open with a specific signal, never with "I hope this finds you well".
2. Keep the email under 120 words.
3. One clear, low-friction call to action.
4. The LinkedIn connection note must stay under 280 characters.
5. Sound like a person, not a template.

Return this EXACT JSON structure:
{
  "email": {"subject": "...", "body": "..."},
  "linkedin": {"connectionNote": "...", "followUpMessage": "..."},
  "sequence": {
    "day1": {"subject": "...", "body": "..."},
    "day3": {"subject": "...", "body": "..."},
    "day7": {"subject": "...", "body": "..."}
  },
  "personalizationPoints": ["facts you used to personalize"]
}`)

	return Prompt{
		Stage:       StageOutreach,
		Subject:     r.Company.Name,
		System:      systemPrompt,
		User:        b.String(),
		Temperature: 0.8,
		MaxTokens:   1500,
	}
}
