package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/store"
	"github.com/crossrank/adscope-cli/pkg/anthropic"
	"github.com/crossrank/adscope-cli/pkg/pagefetch"
	"github.com/crossrank/adscope-cli/pkg/serpmetrics"
)

// mockStore implements store.Store in memory, recording pipeline writes.
type mockStore struct {
	mu sync.Mutex

	createErr          error
	recommendationsErr error
	completeErr        error

	report *model.Report
	// events records status transitions and phase persistence in call order.
	events          []string
	statuses        []model.ReportStatus
	savedScout      *model.ScoutFindings
	savedResearch   *model.ResearchData
	savedPaid       *model.AgentOutput
	savedOrganic    *model.AgentOutput
	savedViolations []model.Violation
	completed       *model.DirectorOutput
	completedUsage  model.TokenUsage
	recs            []model.Recommendation
	failedMessage   string
}

func (m *mockStore) CreateReport(_ context.Context, client model.Client, trigger model.TriggerReason, dateRange model.DateRange) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.report = &model.Report{
		ID:        uuid.New().String(),
		Client:    client,
		Trigger:   trigger,
		Status:    model.ReportStatusPending,
		Range:     dateRange,
		CreatedAt: time.Now().UTC(),
	}
	return m.report, nil
}

func (m *mockStore) UpdateReportStatus(_ context.Context, _ string, status model.ReportStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "status:"+string(status))
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *mockStore) SaveScoutFindings(_ context.Context, _ string, findings *model.ScoutFindings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "scout")
	m.savedScout = findings
	return nil
}

func (m *mockStore) SaveResearchData(_ context.Context, _ string, data *model.ResearchData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "research")
	m.savedResearch = data
	return nil
}

func (m *mockStore) SaveAgentOutputs(_ context.Context, _ string, paid, organic *model.AgentOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedPaid = paid
	m.savedOrganic = organic
	return nil
}

func (m *mockStore) SaveViolations(_ context.Context, _ string, violations []model.Violation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedViolations = violations
	return nil
}

func (m *mockStore) CompleteReport(_ context.Context, _ string, director *model.DirectorOutput, usage model.TokenUsage, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	m.completed = director
	m.completedUsage = usage
	return nil
}

func (m *mockStore) FailReport(_ context.Context, _ string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedMessage = message
	return nil
}

func (m *mockStore) GetReport(context.Context, string) (*model.Report, error) {
	return m.report, nil
}

func (m *mockStore) LatestReport(context.Context, string) (*model.Report, error) {
	return m.report, nil
}

func (m *mockStore) ListReports(context.Context, store.ReportFilter) ([]model.Report, error) {
	return nil, nil
}

func (m *mockStore) CreateRecommendations(_ context.Context, recs []model.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recommendationsErr != nil {
		return m.recommendationsErr
	}
	m.recs = append(m.recs, recs...)
	return nil
}

func (m *mockStore) ListRecommendations(context.Context, string) ([]model.Recommendation, error) {
	return m.recs, nil
}

func (m *mockStore) KeywordMetricsForRange(context.Context, string, model.DateRange) ([]model.KeywordMetrics, error) {
	return nil, nil
}

func (m *mockStore) PageMetricsForRange(context.Context, string, model.DateRange) ([]model.PageMetrics, error) {
	return nil, nil
}

func (m *mockStore) UpsertKeywordMetrics(context.Context, string, time.Time, []model.KeywordMetrics) (int64, error) {
	return 0, nil
}

func (m *mockStore) UpsertPageMetrics(context.Context, string, time.Time, []model.PageMetrics) (int64, error) {
	return 0, nil
}

func (m *mockStore) Ping(context.Context) error { return nil }

func (m *mockStore) Migrate(context.Context) error { return nil }

func (m *mockStore) Close() error { return nil }

// mockMetrics serves fixture rows.
type mockMetrics struct {
	keywords    []model.KeywordMetrics
	pages       []model.PageMetrics
	keywordsErr error
	pagesErr    error
}

func (m *mockMetrics) Keywords(context.Context, string, model.DateRange) ([]model.KeywordMetrics, error) {
	return m.keywords, m.keywordsErr
}

func (m *mockMetrics) Pages(context.Context, string, model.DateRange) ([]model.PageMetrics, error) {
	return m.pages, m.pagesErr
}

// nilSerp has no competitive data for any keyword.
type nilSerp struct{}

func (nilSerp) Lookup(context.Context, string) (*serpmetrics.KeywordData, error) {
	return nil, nil
}

// nilPages has no content for any URL.
type nilPages struct{}

func (nilPages) Fetch(context.Context, string) (*pagefetch.Page, error) {
	return nil, nil
}

// routingClient returns a canned specialist or director response, routed by
// the per-phase token ceiling.
type routingClient struct {
	mu            sync.Mutex
	specialist    string
	director      string
	specialistErr error
	directorErr   error
	calls         int
}

func (c *routingClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	text := c.specialist
	err := c.specialistErr
	if req.MaxTokens > 4096 {
		text = c.director
		err = c.directorErr
	}
	if err != nil {
		return nil, err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 40},
	}, nil
}

const specialistResponse = `{
	"actions": [
		{
			"description": "Reduce max CPC on 'running shoes'",
			"scope": "keyword",
			"expected_impact": "Recover wasted spend",
			"reasoning": "Organic rank already captures intent",
			"impact": "high"
		}
	]
}`

const directorResponse = `{
	"summary": "Paid and organic overlap on core terms.",
	"recommendations": [
		{
			"title": "Stop paid cannibalization",
			"description": "Cut bids where organic ranks top 3",
			"category": "hybrid",
			"impact": "high",
			"effort": "low",
			"action_items": ["Add negatives", "Reduce max CPC"]
		}
	]
}`
