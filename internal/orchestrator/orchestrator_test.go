package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/agents"
	"github.com/crossrank/adscope-cli/internal/ai"
	"github.com/crossrank/adscope-cli/internal/metrics"
	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/research"
	"github.com/crossrank/adscope-cli/internal/store"
	"github.com/crossrank/adscope-cli/pkg/anthropic"
)

func newTestOrchestrator(st store.Store, provider metrics.Provider, mc anthropic.Client) *Orchestrator {
	gw := ai.NewGateway(mc, ai.Config{MaxAttempts: 2, BaseDelay: time.Millisecond})
	return New(
		st,
		provider,
		research.New(nilSerp{}, nilPages{}),
		agents.NewPaid(gw, "test-model"),
		agents.NewOrganic(gw, "test-model"),
		agents.NewDirector(gw, "test-model"),
		"test-model",
	)
}

func testClient() model.Client {
	return model.Client{
		ID:           "client-1",
		Name:         "Acme Footwear",
		Domain:       "acmefootwear.example",
		BusinessType: "ecommerce",
	}
}

func testRange() model.DateRange {
	end := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	return model.DateRange{Start: end.AddDate(0, 0, -29), End: end}
}

// triggeringKeywords crosses the ecommerce high-spend threshold so the scout
// produces a non-empty shortlist.
func triggeringKeywords() []model.KeywordMetrics {
	pos := 6.0
	return []model.KeywordMetrics{
		{
			Keyword:         "running shoes",
			Spend:           540,
			Clicks:          120,
			Impressions:     5000,
			Conversions:     1,
			OrganicPosition: &pos,
		},
	}
}

func TestGenerateReportHappyPath(t *testing.T) {
	st := &mockStore{}
	mc := &routingClient{specialist: specialistResponse, director: directorResponse}
	o := newTestOrchestrator(st, &mockMetrics{keywords: triggeringKeywords()}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, model.ReportStatusCompleted, report.Status)
	assert.Equal(t, []model.ReportStatus{model.ReportStatusResearching, model.ReportStatusAnalyzing}, st.statuses)
	// The report leaves pending only once the scout shortlist is persisted.
	assert.Equal(t, []string{"scout", "status:researching", "research", "status:analyzing"}, st.events)

	// Every phase persisted its blob.
	require.NotNil(t, st.savedScout)
	assert.Len(t, st.savedScout.Keywords, 1)
	require.NotNil(t, st.savedResearch)
	require.NotNil(t, st.savedPaid)
	require.NotNil(t, st.savedOrganic)
	assert.Equal(t, model.CategoryPaid, st.savedPaid.Channel)
	assert.Equal(t, model.CategoryOrganic, st.savedOrganic.Channel)

	// The organic specialist proposed a keyword-scoped action, which is
	// outside its allowed scopes. Recorded, not fatal.
	require.Len(t, st.savedViolations, 1)
	assert.Equal(t, "organic-specialist", st.savedViolations[0].Phase)
	assert.Equal(t, "scope-not-allowed", st.savedViolations[0].RuleID)

	// Recommendations are stamped before persistence.
	require.Len(t, st.recs, 1)
	rec := st.recs[0]
	_, parseErr := uuid.Parse(rec.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, report.ID, rec.ReportID)
	assert.Equal(t, model.RecommendationStatusPending, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "Stop paid cannibalization", rec.Title)

	// Two specialists plus the director, one model call each.
	assert.Equal(t, 3, mc.calls)
	require.NotNil(t, st.completed)
	assert.Equal(t, "Paid and organic overlap on core terms.", st.completed.Summary)
	assert.Equal(t, 300, st.completedUsage.InputTokens)
	assert.Equal(t, 120, st.completedUsage.OutputTokens)
	assert.Equal(t, st.completedUsage, report.TokenUsage)
}

func TestGenerateReportEmptyFindingsSkipsAnalysis(t *testing.T) {
	st := &mockStore{}
	mc := &routingClient{specialist: specialistResponse, director: directorResponse}
	o := newTestOrchestrator(st, &mockMetrics{}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerScheduled, testRange())
	require.NoError(t, err)

	assert.Equal(t, model.ReportStatusCompleted, report.Status)
	assert.Equal(t, 0, mc.calls)
	assert.Equal(t, []model.ReportStatus{model.ReportStatusResearching}, st.statuses)

	require.NotNil(t, st.savedScout)
	assert.Nil(t, st.savedResearch)
	assert.Empty(t, st.recs)
	require.NotNil(t, st.completed)
	assert.Contains(t, st.completed.Summary, "No optimization opportunities")
	assert.Equal(t, model.TokenUsage{}, st.completedUsage)
}

func TestGenerateReportMetricsFailure(t *testing.T) {
	st := &mockStore{}
	o := newTestOrchestrator(st, &mockMetrics{keywordsErr: errors.New("warehouse down")}, &routingClient{})

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics phase")
	assert.Contains(t, err.Error(), "warehouse down")

	require.NotNil(t, report)
	assert.Equal(t, model.ReportStatusFailed, report.Status)
	assert.Contains(t, st.failedMessage, "metrics phase")
}

func TestGenerateReportUnknownBusinessType(t *testing.T) {
	st := &mockStore{}
	o := newTestOrchestrator(st, &mockMetrics{}, &routingClient{})

	client := testClient()
	client.BusinessType = "dropshipping"

	report, err := o.GenerateReport(context.Background(), client, model.TriggerManual, testRange())
	require.Error(t, err)
	assert.Nil(t, report)
	// Nothing was written before validation failed.
	assert.Nil(t, st.report)
}

func TestGenerateReportCreateReportFailure(t *testing.T) {
	st := &mockStore{createErr: errors.New("connection refused")}
	o := newTestOrchestrator(st, &mockMetrics{}, &routingClient{})

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerCreation, testRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create report")
	assert.Nil(t, report)
}

func TestGenerateReportSpecialistFailure(t *testing.T) {
	st := &mockStore{}
	mc := &routingClient{specialistErr: errors.New("model unavailable"), director: directorResponse}
	o := newTestOrchestrator(st, &mockMetrics{keywords: triggeringKeywords()}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specialist phase")

	assert.Equal(t, model.ReportStatusFailed, report.Status)
	assert.Contains(t, st.failedMessage, "specialist phase")
	assert.Empty(t, st.recs)
}

func TestGenerateReportDirectorFailure(t *testing.T) {
	st := &mockStore{}
	mc := &routingClient{specialist: specialistResponse, directorErr: errors.New("model unavailable")}
	o := newTestOrchestrator(st, &mockMetrics{keywords: triggeringKeywords()}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "director phase")

	assert.Equal(t, model.ReportStatusFailed, report.Status)
	// Specialist outputs survive the failed synthesis.
	assert.NotNil(t, st.savedPaid)
	assert.NotNil(t, st.savedOrganic)
}

func TestGenerateReportRecommendationPersistFailure(t *testing.T) {
	st := &mockStore{recommendationsErr: errors.New("disk full")}
	mc := &routingClient{specialist: specialistResponse, director: directorResponse}
	o := newTestOrchestrator(st, &mockMetrics{keywords: triggeringKeywords()}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist recommendations")

	assert.Equal(t, model.ReportStatusFailed, report.Status)
	assert.Contains(t, st.failedMessage, "disk full")
	assert.Nil(t, st.completed)
}

func TestGenerateReportCompletePersistFailure(t *testing.T) {
	st := &mockStore{completeErr: errors.New("connection lost")}
	mc := &routingClient{specialist: specialistResponse, director: directorResponse}
	o := newTestOrchestrator(st, &mockMetrics{keywords: triggeringKeywords()}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complete report")

	// The row still reaches a terminal status.
	assert.Equal(t, model.ReportStatusFailed, report.Status)
	assert.Contains(t, st.failedMessage, "complete report")
	assert.Contains(t, st.failedMessage, "connection lost")
}

func TestGenerateReportDirectorFallback(t *testing.T) {
	st := &mockStore{}
	mc := &routingClient{
		specialist: specialistResponse,
		director:   `{"summary": "Nothing actionable this period.", "recommendations": []}`,
	}
	o := newTestOrchestrator(st, &mockMetrics{keywords: triggeringKeywords()}, mc)

	report, err := o.GenerateReport(context.Background(), testClient(), model.TriggerManual, testRange())
	require.NoError(t, err)

	assert.Equal(t, model.ReportStatusCompleted, report.Status)
	require.NotNil(t, report.Director)
	assert.True(t, report.Director.Fallback)
	assert.Equal(t, "Nothing actionable this period.", report.Director.Summary)
	assert.Empty(t, st.recs)
	// The empty recommendation array is accepted on the first attempt.
	assert.Equal(t, 3, mc.calls)
}
