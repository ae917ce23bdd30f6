package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emirozbir/clinic-insights/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS error_logs (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL,
	component TEXT,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS performance_metrics (
	id BIGSERIAL PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	metric TEXT NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS insight_reports (
	id TEXT PRIMARY KEY,
	organization_id BIGINT NOT NULL,
	timeframe TEXT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	health_score INTEGER NOT NULL,
	fallback BOOLEAN NOT NULL,
	report_json JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_error_logs_org_time ON error_logs(organization_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_performance_org_time ON performance_metrics(organization_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_reports_org_generated ON insight_reports(organization_id, generated_at DESC);
`

// PostgresDB is the telemetry store backed by the clinic's Postgres database.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool, verifies it with a ping and ensures the schema exists.
func NewPostgres(ctx context.Context, databaseURL string, maxConns, minConns int32) (*PostgresDB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

func (db *PostgresDB) InsertError(ctx context.Context, rec models.ErrorRecord) (int64, error) {
	var component *string
	if rec.Component != "" {
		component = &rec.Component
	}

	var id int64
	err := db.pool.QueryRow(ctx, `
		INSERT INTO error_logs (organization_id, type, severity, message, component, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rec.OrganizationID, rec.Type, string(rec.Severity), rec.Message, component, rec.OccurredAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert error record: %w", err)
	}
	return id, nil
}

func (db *PostgresDB) InsertPerformance(ctx context.Context, sample models.PerformanceSample) (int64, error) {
	var id int64
	err := db.pool.QueryRow(ctx, `
		INSERT INTO performance_metrics (organization_id, metric, value, occurred_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		sample.OrganizationID, sample.Metric, sample.Value, sample.OccurredAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert performance sample: %w", err)
	}
	return id, nil
}

func (db *PostgresDB) QueryErrors(ctx context.Context, organizationID int64, since time.Time) ([]models.ErrorRecord, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, organization_id, type, severity, message, component, occurred_at
		FROM error_logs
		WHERE organization_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at ASC, id ASC`,
		organizationID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query error records: %w", err)
	}
	defer rows.Close()

	records := []models.ErrorRecord{}
	for rows.Next() {
		var (
			rec       models.ErrorRecord
			severity  string
			component *string
		)
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.Type, &severity, &rec.Message, &component, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan error record: %w", err)
		}
		rec.Severity = models.Severity(severity)
		if component != nil {
			rec.Component = *component
		}
		rec.OccurredAt = rec.OccurredAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (db *PostgresDB) QueryPerformance(ctx context.Context, organizationID int64, since time.Time) ([]models.PerformanceSample, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, organization_id, metric, value, occurred_at
		FROM performance_metrics
		WHERE organization_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at ASC, id ASC`,
		organizationID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query performance samples: %w", err)
	}
	defer rows.Close()

	samples := []models.PerformanceSample{}
	for rows.Next() {
		var s models.PerformanceSample
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Metric, &s.Value, &s.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan performance sample: %w", err)
		}
		s.OccurredAt = s.OccurredAt.UTC()
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (db *PostgresDB) SaveReport(ctx context.Context, report *models.HealthReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO insight_reports (id, organization_id, timeframe, generated_at, health_score, fallback, report_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ID,
		report.OrganizationID,
		string(report.Timeframe),
		report.GeneratedAt.UTC(),
		report.Insights.SystemHealth.Score,
		report.Fallback,
		reportJSON,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	row := db.pool.QueryRow(ctx, `
		SELECT id, organization_id, timeframe, generated_at, health_score, fallback, report_json
		FROM insight_reports
		WHERE id = $1`, id)

	stored, err := scanPostgresReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (db *PostgresDB) ListReports(ctx context.Context, organizationID int64, limit, offset int) ([]StoredReport, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, organization_id, timeframe, generated_at, health_score, fallback, report_json
		FROM insight_reports
		WHERE organization_id = $1
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3`,
		organizationID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []StoredReport{}
	for rows.Next() {
		stored, err := scanPostgresReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *stored)
	}
	return reports, rows.Err()
}

func (db *PostgresDB) CountReports(ctx context.Context, organizationID int64) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM insight_reports WHERE organization_id = $1", organizationID).Scan(&count)
	return count, err
}

func (db *PostgresDB) DeleteReport(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx, "DELETE FROM insight_reports WHERE id = $1", id)
	return err
}

func scanPostgresReport(row pgx.Row) (*StoredReport, error) {
	var (
		stored     StoredReport
		timeframe  string
		reportJSON []byte
	)
	err := row.Scan(
		&stored.ID,
		&stored.OrganizationID,
		&timeframe,
		&stored.GeneratedAt,
		&stored.HealthScore,
		&stored.Fallback,
		&reportJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	stored.Timeframe = models.Timeframe(timeframe)

	if err := json.Unmarshal(reportJSON, &stored.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &stored, nil
}
