// Package store persists reports, recommendations, and the raw metric rows
// the pipeline analyzes. Two implementations share one interface: Postgres
// for deployments and SQLite for local runs.
package store

import (
	"context"
	"time"

	"github.com/crossrank/adscope-cli/internal/model"
)

// ReportFilter specifies criteria for listing reports.
type ReportFilter struct {
	ClientID string             `json:"client_id,omitempty"`
	Status   model.ReportStatus `json:"status,omitempty"`
	Limit    int                `json:"limit,omitempty"`
	Offset   int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for the optimization pipeline.
// Phase-save methods are append-only: each writes its own column on the
// report row and never touches another phase's output.
type Store interface {
	// Reports
	CreateReport(ctx context.Context, client model.Client, trigger model.TriggerReason, dateRange model.DateRange) (*model.Report, error)
	UpdateReportStatus(ctx context.Context, reportID string, status model.ReportStatus) error
	SaveScoutFindings(ctx context.Context, reportID string, findings *model.ScoutFindings) error
	SaveResearchData(ctx context.Context, reportID string, data *model.ResearchData) error
	SaveAgentOutputs(ctx context.Context, reportID string, paid, organic *model.AgentOutput) error
	SaveViolations(ctx context.Context, reportID string, violations []model.Violation) error
	CompleteReport(ctx context.Context, reportID string, director *model.DirectorOutput, usage model.TokenUsage, elapsedMS int64) error
	FailReport(ctx context.Context, reportID string, message string) error
	GetReport(ctx context.Context, reportID string) (*model.Report, error)
	LatestReport(ctx context.Context, clientID string) (*model.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error)

	// Recommendations
	CreateRecommendations(ctx context.Context, recs []model.Recommendation) error
	ListRecommendations(ctx context.Context, reportID string) ([]model.Recommendation, error)

	// Metrics
	KeywordMetricsForRange(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.KeywordMetrics, error)
	PageMetricsForRange(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.PageMetrics, error)
	UpsertKeywordMetrics(ctx context.Context, clientID string, day time.Time, rows []model.KeywordMetrics) (int64, error)
	UpsertPageMetrics(ctx context.Context, clientID string, day time.Time, rows []model.PageMetrics) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
