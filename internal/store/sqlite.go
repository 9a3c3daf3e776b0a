package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/crossrank/adscope-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for local
// single-client runs; the schema mirrors the Postgres one with JSON stored as
// TEXT.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id             TEXT PRIMARY KEY,
	client         TEXT NOT NULL,
	client_id      TEXT NOT NULL,
	trigger_reason TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	range_start    DATETIME NOT NULL,
	range_end      DATETIME NOT NULL,
	scout          TEXT,
	research       TEXT,
	paid           TEXT,
	organic        TEXT,
	director       TEXT,
	violations     TEXT,
	token_usage    TEXT,
	elapsed_ms     INTEGER NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	started_at     DATETIME,
	completed_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_reports_client_id ON reports(client_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);

CREATE TABLE IF NOT EXISTS recommendations (
	id           TEXT PRIMARY KEY,
	report_id    TEXT NOT NULL REFERENCES reports(id),
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL,
	impact       TEXT NOT NULL,
	effort       TEXT NOT NULL,
	action_items TEXT NOT NULL DEFAULT '[]',
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recommendations_report_id ON recommendations(report_id);

CREATE TABLE IF NOT EXISTS keyword_metrics (
	client_id        TEXT NOT NULL,
	day              TEXT NOT NULL,
	keyword          TEXT NOT NULL,
	spend            REAL NOT NULL DEFAULT 0,
	clicks           INTEGER NOT NULL DEFAULT 0,
	impressions      INTEGER NOT NULL DEFAULT 0,
	conversions      INTEGER NOT NULL DEFAULT 0,
	organic_position REAL,
	organic_ctr      REAL,
	revenue          REAL,
	PRIMARY KEY (client_id, day, keyword)
);

CREATE TABLE IF NOT EXISTS page_metrics (
	client_id        TEXT NOT NULL,
	day              TEXT NOT NULL,
	url              TEXT NOT NULL,
	sessions         INTEGER NOT NULL DEFAULT 0,
	conversions      INTEGER NOT NULL DEFAULT 0,
	bounce_rate      REAL,
	engagement       REAL,
	revenue          REAL,
	organic_position REAL,
	organic_clicks   INTEGER,
	PRIMARY KEY (client_id, day, url)
);
`

const dayFormat = "2006-01-02"

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateReport(ctx context.Context, client model.Client, trigger model.TriggerReason, dateRange model.DateRange) (*model.Report, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	clientJSON, err := json.Marshal(client)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal client")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, client, client_id, trigger_reason, status, range_start, range_end, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(clientJSON), client.ID, string(trigger), string(model.ReportStatusPending), dateRange.Start, dateRange.End, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert report")
	}

	return &model.Report{
		ID:        id,
		Client:    client,
		Trigger:   trigger,
		Status:    model.ReportStatusPending,
		Range:     dateRange,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateReportStatus(ctx context.Context, reportID string, status model.ReportStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, started_at = COALESCE(started_at, ?) WHERE id = ?`,
		string(status), time.Now().UTC(), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update report status %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

func (s *SQLiteStore) savePhaseBlob(ctx context.Context, query, reportID string, blob any, label string) error {
	blobJSON, err := json.Marshal(blob)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal %s", label)
	}
	res, err := s.db.ExecContext(ctx, query, string(blobJSON), reportID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save %s for %s", label, reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

func (s *SQLiteStore) SaveScoutFindings(ctx context.Context, reportID string, findings *model.ScoutFindings) error {
	return s.savePhaseBlob(ctx, `UPDATE reports SET scout = ? WHERE id = ?`, reportID, findings, "scout findings")
}

func (s *SQLiteStore) SaveResearchData(ctx context.Context, reportID string, data *model.ResearchData) error {
	return s.savePhaseBlob(ctx, `UPDATE reports SET research = ? WHERE id = ?`, reportID, data, "research data")
}

func (s *SQLiteStore) SaveAgentOutputs(ctx context.Context, reportID string, paid, organic *model.AgentOutput) error {
	paidJSON, err := json.Marshal(paid)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal paid output")
	}
	organicJSON, err := json.Marshal(organic)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal organic output")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET paid = ?, organic = ? WHERE id = ?`,
		string(paidJSON), string(organicJSON), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save agent outputs for %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

func (s *SQLiteStore) SaveViolations(ctx context.Context, reportID string, violations []model.Violation) error {
	return s.savePhaseBlob(ctx, `UPDATE reports SET violations = ? WHERE id = ?`, reportID, violations, "violations")
}

func (s *SQLiteStore) CompleteReport(ctx context.Context, reportID string, director *model.DirectorOutput, usage model.TokenUsage, elapsedMS int64) error {
	directorJSON, err := json.Marshal(director)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal director output")
	}
	usageJSON, err := json.Marshal(usage)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal token usage")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET director = ?, token_usage = ?, elapsed_ms = ?, status = ?, completed_at = ? WHERE id = ?`,
		string(directorJSON), string(usageJSON), elapsedMS, string(model.ReportStatusCompleted), time.Now().UTC(), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete report %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

func (s *SQLiteStore) FailReport(ctx context.Context, reportID string, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.ReportStatusFailed), message, time.Now().UTC(), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail report %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

const sqliteReportColumns = `id, client, trigger_reason, status, range_start, range_end, scout, research, paid, organic, director, violations, token_usage, elapsed_ms, error, created_at, started_at, completed_at`

func (s *SQLiteStore) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteReportColumns+` FROM reports WHERE id = ?`,
		reportID,
	)
	report, err := scanSQLiteReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("report not found: %s", reportID)
		}
		return nil, eris.Wrapf(err, "sqlite: get report %s", reportID)
	}
	return report, nil
}

func (s *SQLiteStore) LatestReport(ctx context.Context, clientID string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteReportColumns+` FROM reports WHERE client_id = ? ORDER BY created_at DESC LIMIT 1`,
		clientID,
	)
	report, err := scanSQLiteReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: latest report for %s", clientID)
	}
	return report, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `SELECT ` + sqliteReportColumns + ` FROM reports WHERE 1=1`
	var args []any

	if filter.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		report, err := scanSQLiteReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		reports = append(reports, *report)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) CreateRecommendations(ctx context.Context, recs []model.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin recommendations tx")
	}
	defer tx.Rollback()

	for _, rec := range recs {
		itemsJSON, err := json.Marshal(rec.ActionItems)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal action items")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recommendations (id, report_id, title, description, category, impact, effort, action_items, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.ReportID, rec.Title, rec.Description, string(rec.Category),
			string(rec.Impact), string(rec.Effort), string(itemsJSON), rec.Status, rec.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert recommendation %s", rec.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit recommendations")
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context, reportID string) ([]model.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, report_id, title, description, category, impact, effort, action_items, status, created_at
		 FROM recommendations WHERE report_id = ? ORDER BY created_at, id`,
		reportID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recommendations")
	}
	defer rows.Close()

	var recs []model.Recommendation
	for rows.Next() {
		var rec model.Recommendation
		var itemsJSON string
		if err := rows.Scan(&rec.ID, &rec.ReportID, &rec.Title, &rec.Description,
			&rec.Category, &rec.Impact, &rec.Effort, &itemsJSON, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recommendation")
		}
		if itemsJSON != "" {
			if err := json.Unmarshal([]byte(itemsJSON), &rec.ActionItems); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal action items")
			}
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list recommendations iterate")
}

func (s *SQLiteStore) KeywordMetricsForRange(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.KeywordMetrics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword,
		        COALESCE(SUM(spend), 0),
		        COALESCE(SUM(clicks), 0),
		        COALESCE(SUM(impressions), 0),
		        COALESCE(SUM(conversions), 0),
		        AVG(organic_position),
		        AVG(organic_ctr),
		        SUM(revenue)
		 FROM keyword_metrics
		 WHERE client_id = ? AND day >= ? AND day <= ?
		 GROUP BY keyword ORDER BY keyword`,
		clientID, dateRange.Start.Format(dayFormat), dateRange.End.Format(dayFormat),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: keyword metrics")
	}
	defer rows.Close()

	var out []model.KeywordMetrics
	for rows.Next() {
		var m model.KeywordMetrics
		if err := rows.Scan(&m.Keyword, &m.Spend, &m.Clicks, &m.Impressions, &m.Conversions,
			&m.OrganicPosition, &m.OrganicCTR, &m.Revenue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan keyword metrics")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: keyword metrics iterate")
}

func (s *SQLiteStore) PageMetricsForRange(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.PageMetrics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url,
		        COALESCE(SUM(sessions), 0),
		        COALESCE(SUM(conversions), 0),
		        AVG(bounce_rate),
		        AVG(engagement),
		        SUM(revenue),
		        AVG(organic_position),
		        SUM(organic_clicks)
		 FROM page_metrics
		 WHERE client_id = ? AND day >= ? AND day <= ?
		 GROUP BY url ORDER BY url`,
		clientID, dateRange.Start.Format(dayFormat), dateRange.End.Format(dayFormat),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: page metrics")
	}
	defer rows.Close()

	var out []model.PageMetrics
	for rows.Next() {
		var m model.PageMetrics
		if err := rows.Scan(&m.URL, &m.Sessions, &m.Conversions, &m.BounceRate,
			&m.Engagement, &m.Revenue, &m.OrganicPosition, &m.OrganicClicks); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan page metrics")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: page metrics iterate")
}

func (s *SQLiteStore) UpsertKeywordMetrics(ctx context.Context, clientID string, day time.Time, rows []model.KeywordMetrics) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin metrics tx")
	}
	defer tx.Rollback()

	var n int64
	for _, m := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO keyword_metrics (client_id, day, keyword, spend, clicks, impressions, conversions, organic_position, organic_ctr, revenue)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (client_id, day, keyword) DO UPDATE SET
			   spend = excluded.spend, clicks = excluded.clicks, impressions = excluded.impressions,
			   conversions = excluded.conversions, organic_position = excluded.organic_position,
			   organic_ctr = excluded.organic_ctr, revenue = excluded.revenue`,
			clientID, day.Format(dayFormat), m.Keyword, m.Spend, m.Clicks, m.Impressions, m.Conversions,
			m.OrganicPosition, m.OrganicCTR, m.Revenue,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert keyword metrics %q", m.Keyword)
		}
		n++
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: commit keyword metrics")
}

func (s *SQLiteStore) UpsertPageMetrics(ctx context.Context, clientID string, day time.Time, rows []model.PageMetrics) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin metrics tx")
	}
	defer tx.Rollback()

	var n int64
	for _, m := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO page_metrics (client_id, day, url, sessions, conversions, bounce_rate, engagement, revenue, organic_position, organic_clicks)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (client_id, day, url) DO UPDATE SET
			   sessions = excluded.sessions, conversions = excluded.conversions, bounce_rate = excluded.bounce_rate,
			   engagement = excluded.engagement, revenue = excluded.revenue,
			   organic_position = excluded.organic_position, organic_clicks = excluded.organic_clicks`,
			clientID, day.Format(dayFormat), m.URL, m.Sessions, m.Conversions,
			m.BounceRate, m.Engagement, m.Revenue, m.OrganicPosition, m.OrganicClicks,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert page metrics %q", m.URL)
		}
		n++
	}
	return n, eris.Wrap(tx.Commit(), "sqlite: commit page metrics")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

// scanSQLiteReport hydrates a report row from database/sql, where nullable
// columns need explicit NULL handling.
func scanSQLiteReport(row scannable) (*model.Report, error) {
	var r model.Report
	var clientJSON string
	var scoutJSON, researchJSON, paidJSON, organicJSON, directorJSON, violationsJSON, usageJSON sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&r.ID, &clientJSON, &r.Trigger, &r.Status, &r.Range.Start, &r.Range.End,
		&scoutJSON, &researchJSON, &paidJSON, &organicJSON, &directorJSON, &violationsJSON,
		&usageJSON, &r.ElapsedMS, &r.Error, &r.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(clientJSON), &r.Client); err != nil {
		return nil, eris.Wrap(err, "unmarshal client")
	}
	if startedAt.Valid {
		r.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}

	decode := func(src sql.NullString, dst any, label string) error {
		if !src.Valid || src.String == "" || src.String == "null" {
			return nil
		}
		return eris.Wrapf(json.Unmarshal([]byte(src.String), dst), "unmarshal %s", label)
	}

	if scoutJSON.Valid && scoutJSON.String != "" && scoutJSON.String != "null" {
		r.Scout = &model.ScoutFindings{}
	}
	if err := decode(scoutJSON, r.Scout, "scout"); err != nil {
		return nil, err
	}
	if researchJSON.Valid && researchJSON.String != "" && researchJSON.String != "null" {
		r.Research = &model.ResearchData{}
	}
	if err := decode(researchJSON, r.Research, "research"); err != nil {
		return nil, err
	}
	if paidJSON.Valid && paidJSON.String != "" && paidJSON.String != "null" {
		r.Paid = &model.AgentOutput{}
	}
	if err := decode(paidJSON, r.Paid, "paid"); err != nil {
		return nil, err
	}
	if organicJSON.Valid && organicJSON.String != "" && organicJSON.String != "null" {
		r.Organic = &model.AgentOutput{}
	}
	if err := decode(organicJSON, r.Organic, "organic"); err != nil {
		return nil, err
	}
	if directorJSON.Valid && directorJSON.String != "" && directorJSON.String != "null" {
		r.Director = &model.DirectorOutput{}
	}
	if err := decode(directorJSON, r.Director, "director"); err != nil {
		return nil, err
	}
	if err := decode(violationsJSON, &r.Violations, "violations"); err != nil {
		return nil, err
	}
	if err := decode(usageJSON, &r.TokenUsage, "token usage"); err != nil {
		return nil, err
	}
	return &r, nil
}
