package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/crossrank/adscope-cli/internal/db"
	"github.com/crossrank/adscope-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot report lifecycle path.
var preparedStatements = map[string]string{
	"insert_report":        `INSERT INTO reports (id, client, client_id, trigger_reason, status, range_start, range_end, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"update_report_status": `UPDATE reports SET status = $1, started_at = COALESCE(started_at, $2) WHERE id = $3`,
	"save_scout":           `UPDATE reports SET scout = $1 WHERE id = $2`,
	"save_research":        `UPDATE reports SET research = $1 WHERE id = $2`,
	"save_agents":          `UPDATE reports SET paid = $1, organic = $2 WHERE id = $3`,
	"save_violations":      `UPDATE reports SET violations = $1 WHERE id = $2`,
	"complete_report":      `UPDATE reports SET director = $1, token_usage = $2, elapsed_ms = $3, status = $4, completed_at = $5 WHERE id = $6`,
	"fail_report":          `UPDATE reports SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
	"get_report":           `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`,
	"insert_rec":           `INSERT INTO recommendations (id, report_id, title, description, category, impact, effort, action_items, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
}

const reportColumns = `id, client, trigger_reason, status, range_start, range_end, scout, research, paid, organic, director, violations, token_usage, elapsed_ms, error, created_at, started_at, completed_at`

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id             TEXT PRIMARY KEY,
	client         JSONB NOT NULL,
	client_id      TEXT NOT NULL,
	trigger_reason TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	range_start    TIMESTAMPTZ NOT NULL,
	range_end      TIMESTAMPTZ NOT NULL,
	scout          JSONB,
	research       JSONB,
	paid           JSONB,
	organic        JSONB,
	director       JSONB,
	violations     JSONB,
	token_usage    JSONB,
	elapsed_ms     BIGINT NOT NULL DEFAULT 0,
	error          TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at     TIMESTAMPTZ,
	completed_at   TIMESTAMPTZ
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
	action_items JSONB NOT NULL DEFAULT '[]',
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_recommendations_report_id ON recommendations(report_id);

CREATE TABLE IF NOT EXISTS keyword_metrics (
	client_id        TEXT NOT NULL,
	day              DATE NOT NULL,
	keyword          TEXT NOT NULL,
	spend            DOUBLE PRECISION NOT NULL DEFAULT 0,
	clicks           INTEGER NOT NULL DEFAULT 0,
	impressions      INTEGER NOT NULL DEFAULT 0,
	conversions      INTEGER NOT NULL DEFAULT 0,
	organic_position DOUBLE PRECISION,
	organic_ctr      DOUBLE PRECISION,
	revenue          DOUBLE PRECISION,
	PRIMARY KEY (client_id, day, keyword)
);

CREATE TABLE IF NOT EXISTS page_metrics (
	client_id        TEXT NOT NULL,
	day              DATE NOT NULL,
	url              TEXT NOT NULL,
	sessions         INTEGER NOT NULL DEFAULT 0,
	conversions      INTEGER NOT NULL DEFAULT 0,
	bounce_rate      DOUBLE PRECISION,
	engagement       DOUBLE PRECISION,
	revenue          DOUBLE PRECISION,
	organic_position DOUBLE PRECISION,
	organic_clicks   INTEGER,
	PRIMARY KEY (client_id, day, url)
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, client model.Client, trigger model.TriggerReason, dateRange model.DateRange) (*model.Report, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	clientJSON, err := json.Marshal(client)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal client")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (id, client, client_id, trigger_reason, status, range_start, range_end, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, clientJSON, client.ID, string(trigger), string(model.ReportStatusPending), dateRange.Start, dateRange.End, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert report")
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

func (s *PostgresStore) UpdateReportStatus(ctx context.Context, reportID string, status model.ReportStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET status = $1, started_at = COALESCE(started_at, $2) WHERE id = $3`,
		string(status), time.Now().UTC(), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update report status %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) savePhaseBlob(ctx context.Context, query, reportID string, blob any, label string) error {
	blobJSON, err := json.Marshal(blob)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal %s", label)
	}
	tag, err := s.pool.Exec(ctx, query, blobJSON, reportID)
	if err != nil {
		return eris.Wrapf(err, "postgres: save %s for %s", label, reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) SaveScoutFindings(ctx context.Context, reportID string, findings *model.ScoutFindings) error {
	return s.savePhaseBlob(ctx, `UPDATE reports SET scout = $1 WHERE id = $2`, reportID, findings, "scout findings")
}

func (s *PostgresStore) SaveResearchData(ctx context.Context, reportID string, data *model.ResearchData) error {
	return s.savePhaseBlob(ctx, `UPDATE reports SET research = $1 WHERE id = $2`, reportID, data, "research data")
}

func (s *PostgresStore) SaveAgentOutputs(ctx context.Context, reportID string, paid, organic *model.AgentOutput) error {
	paidJSON, err := json.Marshal(paid)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal paid output")
	}
	organicJSON, err := json.Marshal(organic)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal organic output")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET paid = $1, organic = $2 WHERE id = $3`,
		paidJSON, organicJSON, reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save agent outputs for %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) SaveViolations(ctx context.Context, reportID string, violations []model.Violation) error {
	return s.savePhaseBlob(ctx, `UPDATE reports SET violations = $1 WHERE id = $2`, reportID, violations, "violations")
}

func (s *PostgresStore) CompleteReport(ctx context.Context, reportID string, director *model.DirectorOutput, usage model.TokenUsage, elapsedMS int64) error {
	directorJSON, err := json.Marshal(director)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal director output")
	}
	usageJSON, err := json.Marshal(usage)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal token usage")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET director = $1, token_usage = $2, elapsed_ms = $3, status = $4, completed_at = $5 WHERE id = $6`,
		directorJSON, usageJSON, elapsedMS, string(model.ReportStatusCompleted), time.Now().UTC(), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete report %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) FailReport(ctx context.Context, reportID string, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.ReportStatusFailed), message, time.Now().UTC(), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail report %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, reportID string) (*model.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`,
		reportID,
	)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("report not found: %s", reportID)
		}
		return nil, eris.Wrapf(err, "postgres: get report %s", reportID)
	}
	return report, nil
}

func (s *PostgresStore) LatestReport(ctx context.Context, clientID string) (*model.Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE client_id = $1 ORDER BY created_at DESC LIMIT 1`,
		clientID,
	)
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: latest report for %s", clientID)
	}
	return report, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ClientID != "" {
		query += fmt.Sprintf(` AND client_id = $%d`, argIdx)
		args = append(args, filter.ClientID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		reports = append(reports, *report)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) CreateRecommendations(ctx context.Context, recs []model.Recommendation) error {
	for _, rec := range recs {
		itemsJSON, err := json.Marshal(rec.ActionItems)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal action items")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO recommendations (id, report_id, title, description, category, impact, effort, action_items, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rec.ID, rec.ReportID, rec.Title, rec.Description, string(rec.Category),
			string(rec.Impact), string(rec.Effort), itemsJSON, rec.Status, rec.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert recommendation %s", rec.ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListRecommendations(ctx context.Context, reportID string) ([]model.Recommendation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, report_id, title, description, category, impact, effort, action_items, status, created_at
		 FROM recommendations WHERE report_id = $1 ORDER BY created_at, id`,
		reportID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recommendations")
	}
	defer rows.Close()

	var recs []model.Recommendation
	for rows.Next() {
		var rec model.Recommendation
		var itemsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.ReportID, &rec.Title, &rec.Description,
			&rec.Category, &rec.Impact, &rec.Effort, &itemsJSON, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan recommendation")
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &rec.ActionItems); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal action items")
			}
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list recommendations iterate")
}

func (s *PostgresStore) KeywordMetricsForRange(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.KeywordMetrics, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT keyword,
		        COALESCE(SUM(spend), 0),
		        COALESCE(SUM(clicks), 0),
		        COALESCE(SUM(impressions), 0),
		        COALESCE(SUM(conversions), 0),
		        AVG(organic_position),
		        AVG(organic_ctr),
		        SUM(revenue)
		 FROM keyword_metrics
		 WHERE client_id = $1 AND day >= $2 AND day <= $3
		 GROUP BY keyword ORDER BY keyword`,
		clientID, dateRange.Start, dateRange.End,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: keyword metrics")
	}
	defer rows.Close()

	var out []model.KeywordMetrics
	for rows.Next() {
		var m model.KeywordMetrics
		if err := rows.Scan(&m.Keyword, &m.Spend, &m.Clicks, &m.Impressions, &m.Conversions,
			&m.OrganicPosition, &m.OrganicCTR, &m.Revenue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan keyword metrics")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: keyword metrics iterate")
}

func (s *PostgresStore) PageMetricsForRange(ctx context.Context, clientID string, dateRange model.DateRange) ([]model.PageMetrics, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT url,
		        COALESCE(SUM(sessions), 0),
		        COALESCE(SUM(conversions), 0),
		        AVG(bounce_rate),
		        AVG(engagement),
		        SUM(revenue),
		        AVG(organic_position),
		        SUM(organic_clicks)
		 FROM page_metrics
		 WHERE client_id = $1 AND day >= $2 AND day <= $3
		 GROUP BY url ORDER BY url`,
		clientID, dateRange.Start, dateRange.End,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: page metrics")
	}
	defer rows.Close()

	var out []model.PageMetrics
	for rows.Next() {
		var m model.PageMetrics
		if err := rows.Scan(&m.URL, &m.Sessions, &m.Conversions, &m.BounceRate,
			&m.Engagement, &m.Revenue, &m.OrganicPosition, &m.OrganicClicks); err != nil {
			return nil, eris.Wrap(err, "postgres: scan page metrics")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: page metrics iterate")
}

func (s *PostgresStore) UpsertKeywordMetrics(ctx context.Context, clientID string, day time.Time, rows []model.KeywordMetrics) (int64, error) {
	upsertRows := make([][]any, 0, len(rows))
	for _, m := range rows {
		upsertRows = append(upsertRows, []any{
			clientID, day, m.Keyword, m.Spend, m.Clicks, m.Impressions, m.Conversions,
			m.OrganicPosition, m.OrganicCTR, m.Revenue,
		})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "keyword_metrics",
		Columns:      []string{"client_id", "day", "keyword", "spend", "clicks", "impressions", "conversions", "organic_position", "organic_ctr", "revenue"},
		ConflictKeys: []string{"client_id", "day", "keyword"},
	}, upsertRows)
}

func (s *PostgresStore) UpsertPageMetrics(ctx context.Context, clientID string, day time.Time, rows []model.PageMetrics) (int64, error) {
	upsertRows := make([][]any, 0, len(rows))
	for _, m := range rows {
		upsertRows = append(upsertRows, []any{
			clientID, day, m.URL, m.Sessions, m.Conversions,
			m.BounceRate, m.Engagement, m.Revenue, m.OrganicPosition, m.OrganicClicks,
		})
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "page_metrics",
		Columns:      []string{"client_id", "day", "url", "sessions", "conversions", "bounce_rate", "engagement", "revenue", "organic_position", "organic_clicks"},
		ConflictKeys: []string{"client_id", "day", "url"},
	}, upsertRows)
}

type scannable interface {
	Scan(dest ...any) error
}

// scanReport hydrates a report row, decoding whichever phase blobs are
// present.
func scanReport(row scannable) (*model.Report, error) {
	var r model.Report
	var clientJSON []byte
	var scoutJSON, researchJSON, paidJSON, organicJSON, directorJSON, violationsJSON, usageJSON []byte

	err := row.Scan(&r.ID, &clientJSON, &r.Trigger, &r.Status, &r.Range.Start, &r.Range.End,
		&scoutJSON, &researchJSON, &paidJSON, &organicJSON, &directorJSON, &violationsJSON,
		&usageJSON, &r.ElapsedMS, &r.Error, &r.CreatedAt, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(clientJSON, &r.Client); err != nil {
		return nil, eris.Wrap(err, "unmarshal client")
	}

	decode := func(data []byte, dst any, label string) error {
		if len(data) == 0 || string(data) == "null" {
			return nil
		}
		return eris.Wrapf(json.Unmarshal(data, dst), "unmarshal %s", label)
	}

	if len(scoutJSON) > 0 && string(scoutJSON) != "null" {
		r.Scout = &model.ScoutFindings{}
	}
	if err := decode(scoutJSON, r.Scout, "scout"); err != nil {
		return nil, err
	}
	if len(researchJSON) > 0 && string(researchJSON) != "null" {
		r.Research = &model.ResearchData{}
	}
	if err := decode(researchJSON, r.Research, "research"); err != nil {
		return nil, err
	}
	if len(paidJSON) > 0 && string(paidJSON) != "null" {
		r.Paid = &model.AgentOutput{}
	}
	if err := decode(paidJSON, r.Paid, "paid"); err != nil {
		return nil, err
	}
	if len(organicJSON) > 0 && string(organicJSON) != "null" {
		r.Organic = &model.AgentOutput{}
	}
	if err := decode(organicJSON, r.Organic, "organic"); err != nil {
		return nil, err
	}
	if len(directorJSON) > 0 && string(directorJSON) != "null" {
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
