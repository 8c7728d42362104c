package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/dataset"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/vector"
)

func TestRunCmd_RunE_FailsOnValidation(t *testing.T) {
	cfg = testConfig(t)
	cfg.Store.Driver = "postgres"

	runCmd.SetContext(context.Background())
	defer runCmd.SetContext(context.TODO())

	runCompany = "Stripe"
	defer func() { runCompany = "" }()

	err := runCmd.RunE(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestRunCmd_RunE_Offline(t *testing.T) {
	cfg = testConfig(t)

	runCmd.SetContext(context.Background())
	defer runCmd.SetContext(context.TODO())

	runCompany = "Stripe"
	runJSON = true
	defer func() { runCompany, runJSON = "", false }()

	require.NoError(t, runCmd.RunE(runCmd, nil))
}

func TestRunCmd_RunE_BlankCompany(t *testing.T) {
	cfg = testConfig(t)
	cfg.Store.Driver = "none"

	runCmd.SetContext(context.Background())
	defer runCmd.SetContext(context.TODO())

	runCompany = "   "
	defer func() { runCompany = "" }()

	err := runCmd.RunE(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company name is required")
}

func TestFormatState(t *testing.T) {
	done := time.Date(2026, 3, 4, 12, 0, 5, 0, time.UTC)
	st := model.PipelineState{
		RunID:   "run-1",
		Company: "Stripe",
		Status:  model.PipelineCompleted,
		Agents: []model.AgentStatus{
			{Name: model.AgentResearch, Status: model.AgentCompleted, Progress: 100, Source: model.SourceDataset},
		},
		Research: &model.ResearchResult{
			Company:  model.Company{Name: "Stripe", Industry: "Fintech", Size: model.SizeEnterprise},
			Contacts: []model.Contact{{Name: "Jo Park", Title: "CRO", Priority: model.PriorityPrimary}},
			Summary:  "Strong fit.",
		},
		Score:       &model.ScoreResult{Overall: 87, Recommendation: model.RecommendHot},
		Outreach:    &model.OutreachContent{Email: model.EmailMessage{Subject: "Hello"}},
		CompletedAt: &done,
	}

	var buf bytes.Buffer
	formatState(&buf, st)

	out := buf.String()
	assert.Contains(t, out, "Stripe")
	assert.Contains(t, out, "(dataset)")
	assert.Contains(t, out, "87/100 HOT")
	assert.Contains(t, out, "Jo Park, CRO (primary)")
	assert.Contains(t, out, "Hello")
}

func TestFormatState_Error(t *testing.T) {
	var buf bytes.Buffer
	formatState(&buf, model.PipelineState{Status: model.PipelineError, Error: "company name is required"})
	assert.Contains(t, buf.String(), "company name is required")
	assert.NotContains(t, buf.String(), "Score:")
}

func TestFormatDemo(t *testing.T) {
	var buf bytes.Buffer
	formatDemo(&buf, dataset.Companies())
	assert.Contains(t, buf.String(), "Stripe")
	assert.Contains(t, buf.String(), "TAG")
}

func TestFormatMatches(t *testing.T) {
	var buf bytes.Buffer
	formatMatches(&buf, []vector.Match{
		{ID: "stripe.com", Company: "Stripe", Score: 0.8123, Metadata: map[string]string{"industry": "Fintech"}},
	})
	assert.Contains(t, buf.String(), "stripe.com")
	assert.Contains(t, buf.String(), "0.812")
	assert.Contains(t, buf.String(), "Fintech")
}
