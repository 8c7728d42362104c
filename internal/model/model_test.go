package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompanySize(t *testing.T) {
	tests := []struct {
		in   string
		want CompanySize
	}{
		{"enterprise", SizeEnterprise},
		{" Startup ", SizeStartup},
		{"SMB", SizeSMB},
		{"huge", SizeMidmarket},
		{"", SizeMidmarket},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCompanySize(tt.in))
		})
	}
}

func TestParseEnumsDefault(t *testing.T) {
	assert.Equal(t, SignalTechChange, ParseSignalType("techchange"))
	assert.Equal(t, SignalWebsiteVisit, ParseSignalType("rumor"))
	assert.Equal(t, StrengthMedium, ParseSignalStrength("very"))
	assert.Equal(t, DeptHR, ParseDepartment("HR"))
	assert.Equal(t, DeptExecutive, ParseDepartment("legal"))
	assert.Equal(t, PriorityInfluencer, ParseContactPriority("influencer"))
	assert.Equal(t, PriorityPrimary, ParseContactPriority(""))
	assert.Equal(t, ConfidenceLow, ParseConfidence("LOW"))
	assert.Equal(t, ConfidenceMedium, ParseConfidence("sure"))
}

func TestRecommend(t *testing.T) {
	assert.Equal(t, RecommendHot, Recommend(71))
	assert.Equal(t, RecommendWarm, Recommend(70))
	assert.Equal(t, RecommendWarm, Recommend(51))
	assert.Equal(t, RecommendNurture, Recommend(50))
	assert.Equal(t, RecommendNurture, Recommend(31))
	assert.Equal(t, RecommendDisqualify, Recommend(30))
	assert.False(t, Recommendation("cold").Valid())
}

func TestScoreClamp(t *testing.T) {
	s := ScoreResult{Overall: 140, Breakdown: ScoreBreakdown{ICPFit: 30, TimingSignals: -4, BudgetIndicators: 10, EngagementLikelihood: 26}}.Clamp()
	assert.Equal(t, 100, s.Overall)
	assert.Equal(t, ScoreBreakdown{ICPFit: 25, TimingSignals: 0, BudgetIndicators: 10, EngagementLikelihood: 25}, s.Breakdown)
}

func TestResearchClone(t *testing.T) {
	orig := ResearchResult{
		Company:  Company{Name: "Acme", PainPoints: []string{"a"}},
		Contacts: []Contact{{Name: "Jo"}},
	}
	cp := orig.Clone()
	cp.Company.PainPoints[0] = "b"
	cp.Contacts[0].Name = "Al"

	assert.Equal(t, "a", orig.Company.PainPoints[0])
	assert.Equal(t, "Jo", orig.Contacts[0].Name)
}

func TestWithContacts(t *testing.T) {
	r := ResearchResult{Company: Company{Name: "Acme"}}
	got := r.WithContacts()
	assert.Empty(t, r.Contacts)
	assert.Equal(t, []Contact{PlaceholderContact()}, got.Contacts)
	assert.Equal(t, "Decision Maker", got.TargetContact().Name)

	r.Contacts = []Contact{{Name: "Sarah Chen"}}
	assert.Equal(t, "Sarah Chen", r.WithContacts().TargetContact().Name)
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Sarah", FirstName("Sarah Chen"))
	assert.Equal(t, "there", FirstName("  "))
}

func TestAgentStateTerminal(t *testing.T) {
	assert.True(t, AgentCompleted.Terminal())
	assert.True(t, AgentError.Terminal())
	assert.False(t, AgentRunning.Terminal())
	assert.False(t, AgentPending.Terminal())
}
