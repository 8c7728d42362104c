package agent

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/model"
)

// gatewayDuration is the nominal research duration reported for gateway results.
const gatewayDuration = 15

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func orDefaultList(v, def []string) []string {
	out := make([]string, 0, len(v))
	for _, s := range v {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

func normalizeResearch(name string, reply *gateway.ResearchReply, now time.Time, newID func() string) model.ResearchResult {
	c := reply.Company
	companyName := orDefault(c.Name, name)

	company := model.Company{
		Name:          companyName,
		Domain:        orDefault(c.Domain, syntheticDomain(name)),
		Industry:      orDefault(c.Industry, "Technology"),
		Size:          model.ParseCompanySize(c.Size),
		Description:   orDefault(c.Description, name+" is a technology company."),
		PainPoints:    orDefaultList(c.PainPoints, []string{"Scaling operations", "Improving efficiency"}),
		Opportunities: orDefaultList(c.Opportunities, []string{"Sales automation", "Process optimization"}),
		TechStack:     orDefaultList(c.TechStack, []string{"Modern stack"}),
		Founded:       strings.TrimSpace(string(c.Founded)),
		Employees:     strings.TrimSpace(string(c.Employees)),
		Revenue:       strings.TrimSpace(string(c.Revenue)),
		Location:      strings.TrimSpace(c.Location),
	}

	signals := make([]model.IntentSignal, 0, len(reply.Signals))
	for _, s := range reply.Signals {
		signals = append(signals, model.IntentSignal{
			ID:          newID(),
			Type:        model.ParseSignalType(s.Type),
			Strength:    model.ParseSignalStrength(s.Strength),
			Description: orDefault(s.Description, "Signal detected"),
			Source:      orDefault(s.Source, "AI Analysis"),
			DetectedAt:  now,
		})
	}

	contacts := make([]model.Contact, 0, len(reply.Contacts))
	for _, ct := range reply.Contacts {
		contacts = append(contacts, model.Contact{
			ID:         newID(),
			Name:       orDefault(ct.Name, "Decision Maker"),
			Title:      orDefault(ct.Title, "Executive"),
			Department: model.ParseDepartment(ct.Department),
			Priority:   model.ParseContactPriority(ct.Priority),
			Email:      strings.TrimSpace(ct.Email),
			LinkedIn:   strings.TrimSpace(ct.LinkedIn),
		})
	}

	return model.ResearchResult{
		Company:          company,
		Signals:          signals,
		Contacts:         contacts,
		Summary:          orDefault(reply.Summary, "Research completed for "+name+"."),
		ResearchedAt:     now,
		ResearchDuration: gatewayDuration,
	}
}

func normalizeScore(r model.ResearchResult, reply *gateway.ScoreReply) model.ScoreResult {
	b := reply.Breakdown
	s := model.ScoreResult{
		Overall: int(*reply.Overall),
		Breakdown: model.ScoreBreakdown{
			ICPFit:               int(b.ICPFit),
			TimingSignals:        int(b.TimingSignals),
			BudgetIndicators:     int(b.BudgetIndicators),
			EngagementLikelihood: int(b.EngagementLikelihood),
		},
		Reasoning:       orDefault(reply.Reasoning, fmt.Sprintf("%s shows %d buying signals.", r.Company.Name, len(r.Signals))),
		ConfidenceLevel: model.ParseConfidence(reply.ConfidenceLevel),
	}.Clamp()
	if sum := s.Breakdown.Sum(); sum != s.Overall {
		zap.L().Debug("agent: score breakdown does not add up to overall",
			zap.String("company", r.Company.Name),
			zap.Int("overall", s.Overall),
			zap.Int("breakdown_sum", sum),
		)
	}

	rec := model.Recommendation(strings.ToLower(strings.TrimSpace(reply.Recommendation)))
	if !rec.Valid() {
		rec = model.Recommend(s.Overall)
	}
	s.Recommendation = rec
	return s
}

// normalizeOutreach overlays the reply on the fallback copy so every field
// the model left blank still has content.
func normalizeOutreach(r model.ResearchResult, contact model.Contact, reply *gateway.OutreachReply, now time.Time) model.OutreachContent {
	out := FallbackOutreach(r, contact, now)

	out.Email = model.EmailMessage{
		Subject: orDefault(reply.Email.Subject, out.Email.Subject),
		Body:    orDefault(reply.Email.Body, out.Email.Body),
	}
	if li := reply.LinkedIn; li != nil {
		out.LinkedIn.ConnectionNote = truncate(orDefault(li.ConnectionNote, out.LinkedIn.ConnectionNote), model.ConnectionNoteLimit)
		out.LinkedIn.FollowUpMessage = orDefault(li.FollowUpMessage, out.LinkedIn.FollowUpMessage)
	}
	if seq := reply.Sequence; seq != nil {
		out.Sequence.Day1 = overlay(seq.Day1, out.Sequence.Day1)
		out.Sequence.Day3 = overlay(seq.Day3, out.Sequence.Day3)
		out.Sequence.Day7 = overlay(seq.Day7, out.Sequence.Day7)
	}
	out.PersonalizationPoints = orDefaultList(reply.PersonalizationPoints, out.PersonalizationPoints)
	return out
}

func overlay(d *gateway.DraftReply, def model.EmailMessage) model.EmailMessage {
	if d == nil {
		return def
	}
	return model.EmailMessage{
		Subject: orDefault(d.Subject, def.Subject),
		Body:    orDefault(d.Body, def.Body),
	}
}

// truncate cuts s to at most limit runes, preferring a word boundary.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit-3]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
