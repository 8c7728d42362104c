package dataset

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func fixedTable() *Table {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestLookup_ExactKey(t *testing.T) {
	e, ok := fixedTable().Lookup("Stripe")
	require.True(t, ok)

	assert.Equal(t, "stripe", e.Key)
	assert.Equal(t, "Stripe", e.Research.Company.Name)
	assert.Equal(t, model.SizeEnterprise, e.Research.Company.Size)
	assert.Equal(t, 87, e.Score.Overall)
	assert.Equal(t, model.RecommendHot, e.Score.Recommendation)
	assert.Equal(t, model.ConfidenceHigh, e.Score.ConfidenceLevel)
	assert.Equal(t, model.ScoreBreakdown{ICPFit: 24, TimingSignals: 23, BudgetIndicators: 22, EngagementLikelihood: 18}, e.Score.Breakdown)
	assert.Len(t, e.Research.Signals, 4)
	assert.Len(t, e.Research.Contacts, 3)
	assert.Equal(t, "Sarah Chen", e.Research.Contacts[0].Name)
	assert.Equal(t, fixedNow.AddDate(0, 0, -2), e.Research.Signals[0].DetectedAt)
	assert.NotEmpty(t, e.Outreach.Email.Body)
	assert.Equal(t, fixedNow, e.Outreach.GeneratedAt)
}

func TestLookup_Variants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
		wantOK  bool
	}{
		{"trim and case", "  NOTION  ", "notion", true},
		{"input contains key", "Stripe Payments", "stripe", true},
		{"key contains input", "strip", "stripe", true},
		{"alias", "LocalBiz Software", "smallcompany", true},
		{"unknown", "Acme Unknown Co", "", false},
		{"empty", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := fixedTable().Lookup(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, e.Key)
		})
	}
}

func TestLookup_Idempotent(t *testing.T) {
	tbl := fixedTable()
	first, ok := tbl.Lookup("notion")
	require.True(t, ok)
	second, ok := tbl.Lookup("notion")
	require.True(t, ok)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("lookup not idempotent (-first +second):\n%s", diff)
	}
}

func TestLookup_ReturnsCopies(t *testing.T) {
	tbl := fixedTable()
	first, _ := tbl.Lookup("stripe")
	first.Research.Contacts[0].Name = "mutated"
	first.Research.Company.PainPoints[0] = "mutated"
	first.Outreach.PersonalizationPoints[0] = "mutated"

	second, _ := tbl.Lookup("stripe")
	assert.Equal(t, "Sarah Chen", second.Research.Contacts[0].Name)
	assert.NotEqual(t, "mutated", second.Research.Company.PainPoints[0])
	assert.NotEqual(t, "mutated", second.Outreach.PersonalizationPoints[0])
}

func TestLookup_ScoresWithinBounds(t *testing.T) {
	for _, key := range []string{"stripe", "notion", "smallcompany"} {
		e, ok := fixedTable().Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, e.Score, e.Score.Clamp(), key)
		assert.True(t, e.Score.Recommendation.Valid(), key)
		assert.NotEmpty(t, e.Research.Contacts, key)
	}
}

func TestCompanies(t *testing.T) {
	got := Companies()
	require.Len(t, got, 3)
	assert.Equal(t, DemoCompany{Name: "Stripe", Description: "Hot lead - 87/100 score", Tag: "hot"}, got[0])
	assert.Equal(t, "LocalBiz Software", got[2].Name)
	assert.Equal(t, "cold", got[2].Tag)
}
