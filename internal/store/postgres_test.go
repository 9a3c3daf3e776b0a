package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossrank/adscope-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func testDateRange() model.DateRange {
	end := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	return model.DateRange{Start: end.AddDate(0, 0, -29), End: end}
}

func reportRowColumns() []string {
	return []string{
		"id", "client", "trigger_reason", "status", "range_start", "range_end",
		"scout", "research", "paid", "organic", "director", "violations",
		"token_usage", "elapsed_ms", "error", "created_at", "started_at", "completed_at",
	}
}

func TestPostgresStore_CreateReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	client := model.Client{ID: "client-1", Name: "Acme", Domain: "acme.example", BusinessType: "ecommerce"}
	dr := testDateRange()
	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "client-1", "manual", "pending", dr.Start, dr.End, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	report, err := s.CreateReport(context.Background(), client, model.TriggerManual, dr)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, model.ReportStatusPending, report.Status)
	assert.Equal(t, client, report.Client)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateReportStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status = \$1, started_at = COALESCE\(started_at, \$2\) WHERE id = \$3`).
		WithArgs("researching", pgxmock.AnyArg(), "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateReportStatus(context.Background(), "r-1", model.ReportStatusResearching)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateReportStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status`).
		WithArgs("researching", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateReportStatus(context.Background(), "missing", model.ReportStatusResearching)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveScoutFindings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET scout = \$1 WHERE id = \$2`).
		WithArgs(pgxmock.AnyArg(), "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SaveScoutFindings(context.Background(), "r-1", &model.ScoutFindings{RowsScanned: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAgentOutputs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET paid = \$1, organic = \$2 WHERE id = \$3`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	paid := &model.AgentOutput{Channel: model.CategoryPaid}
	organic := &model.AgentOutput{Channel: model.CategoryOrganic}
	require.NoError(t, s.SaveAgentOutputs(context.Background(), "r-1", paid, organic))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET director = \$1, token_usage = \$2, elapsed_ms = \$3, status = \$4, completed_at = \$5 WHERE id = \$6`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1234), "completed", pgxmock.AnyArg(), "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	out := &model.DirectorOutput{Summary: "done"}
	err := s.CompleteReport(context.Background(), "r-1", out, model.TokenUsage{InputTokens: 10}, 1234)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE reports SET status = \$1, error = \$2, completed_at = \$3 WHERE id = \$4`).
		WithArgs(string(model.ReportStatusFailed), "research phase: provider down", pgxmock.AnyArg(), "r-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FailReport(context.Background(), "r-1", "research phase: provider down")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	client := model.Client{ID: "client-1", BusinessType: "saas"}
	clientJSON, err := json.Marshal(client)
	require.NoError(t, err)
	scoutJSON, err := json.Marshal(&model.ScoutFindings{RowsScanned: 7, SkillVersion: "saas-v2"})
	require.NoError(t, err)

	created := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	dr := testDateRange()

	rows := pgxmock.NewRows(reportRowColumns()).AddRow(
		"r-1", clientJSON, "manual", "analyzing", dr.Start, dr.End,
		scoutJSON, []byte(nil), []byte(nil), []byte(nil), []byte(nil), []byte(nil),
		[]byte(nil), int64(0), "", created, (*time.Time)(nil), (*time.Time)(nil),
	)
	mock.ExpectQuery(`SELECT .+ FROM reports WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnRows(rows)

	report, err := s.GetReport(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", report.ID)
	assert.Equal(t, client, report.Client)
	assert.Equal(t, model.ReportStatusAnalyzing, report.Status)
	require.NotNil(t, report.Scout)
	assert.Equal(t, 7, report.Scout.RowsScanned)
	assert.Nil(t, report.Research)
	assert.Nil(t, report.Director)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReport_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM reports WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetReport(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestReport_NoRows(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM reports WHERE client_id = \$1 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("client-1").
		WillReturnError(pgx.ErrNoRows)

	report, err := s.LatestReport(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListReports_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM reports WHERE true AND client_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("client-1", "completed", 5).
		WillReturnRows(pgxmock.NewRows(reportRowColumns()))

	reports, err := s.ListReports(context.Background(), ReportFilter{
		ClientID: "client-1",
		Status:   model.ReportStatusCompleted,
		Limit:    5,
	})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRecommendations(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO recommendations`).
		WithArgs("rec-1", "r-1", "a", "", "paid", "high", "low", pgxmock.AnyArg(), "pending", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO recommendations`).
		WithArgs("rec-2", "r-1", "b", "", "organic", "low", "low", pgxmock.AnyArg(), "pending", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	recs := []model.Recommendation{
		{ID: "rec-1", ReportID: "r-1", Title: "a", Category: model.CategoryPaid, Impact: model.ImpactHigh, Effort: model.ImpactLow, Status: model.RecommendationStatusPending, CreatedAt: time.Now()},
		{ID: "rec-2", ReportID: "r-1", Title: "b", Category: model.CategoryOrganic, Impact: model.ImpactLow, Effort: model.ImpactLow, Status: model.RecommendationStatusPending, CreatedAt: time.Now()},
	}
	require.NoError(t, s.CreateRecommendations(context.Background(), recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecommendations(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "report_id", "title", "description", "category", "impact", "effort", "action_items", "status", "created_at",
	}).AddRow(
		"rec-1", "r-1", "Fix wasted spend", "desc", "paid", "high", "low",
		[]byte(`["pause broad match"]`), "pending", created,
	)
	mock.ExpectQuery(`SELECT .+ FROM recommendations WHERE report_id = \$1`).
		WithArgs("r-1").
		WillReturnRows(rows)

	recs, err := s.ListRecommendations(context.Background(), "r-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.CategoryPaid, recs[0].Category)
	assert.Equal(t, []string{"pause broad match"}, recs[0].ActionItems)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_KeywordMetricsForRange(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	pos := 6.5
	rows := pgxmock.NewRows([]string{
		"keyword", "spend", "clicks", "impressions", "conversions", "organic_position", "organic_ctr", "revenue",
	}).AddRow(
		"running shoes", 540.0, 40, 5000, 1, &pos, (*float64)(nil), (*float64)(nil),
	)
	dr := testDateRange()
	mock.ExpectQuery(`FROM keyword_metrics`).
		WithArgs("client-1", dr.Start, dr.End).
		WillReturnRows(rows)

	metrics, err := s.KeywordMetricsForRange(context.Background(), "client-1", dr)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, "running shoes", metrics[0].Keyword)
	assert.Equal(t, 540.0, metrics[0].Spend)
	require.NotNil(t, metrics[0].OrganicPosition)
	assert.Equal(t, 6.5, *metrics[0].OrganicPosition)
	assert.Nil(t, metrics[0].Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertKeywordMetrics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	cols := []string{"client_id", "day", "keyword", "spend", "clicks", "impressions", "conversions", "organic_position", "organic_ctr", "revenue"}

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_keyword_metrics"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_keyword_metrics"}, cols).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "keyword_metrics" .+ ON CONFLICT`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.UpsertKeywordMetrics(context.Background(), "client-1", day, []model.KeywordMetrics{
		{Keyword: "running shoes", Spend: 20},
		{Keyword: "trail shoes", Spend: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertPageMetrics_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.UpsertPageMetrics(context.Background(), "client-1", time.Now(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
