package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/emirozbir/clinic-insights/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS error_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	organization_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT NOT NULL,
	component TEXT,
	occurred_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS performance_metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	organization_id INTEGER NOT NULL,
	metric TEXT NOT NULL,
	value REAL NOT NULL,
	occurred_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS insight_reports (
	id TEXT PRIMARY KEY,
	organization_id INTEGER NOT NULL,
	timeframe TEXT NOT NULL,
	generated_at DATETIME NOT NULL,
	health_score INTEGER NOT NULL,
	fallback INTEGER NOT NULL,
	report_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_error_logs_org_time ON error_logs(organization_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_performance_org_time ON performance_metrics(organization_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_reports_org_generated ON insight_reports(organization_id, generated_at DESC);
`

// DB is the SQLite telemetry store. Timestamps of telemetry rows are stored
// as unix milliseconds.
type DB struct {
	conn *sql.DB
}

type StoredReport struct {
	ID             string
	OrganizationID int64
	Timeframe      models.Timeframe
	GeneratedAt    time.Time
	HealthScore    int
	Fallback       bool
	Report         models.HealthReport
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// InsertError stores one error record and returns its ID.
func (db *DB) InsertError(ctx context.Context, rec models.ErrorRecord) (int64, error) {
	var component sql.NullString
	if rec.Component != "" {
		component = sql.NullString{String: rec.Component, Valid: true}
	}

	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO error_logs (organization_id, type, severity, message, component, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.OrganizationID, rec.Type, string(rec.Severity), rec.Message, component, rec.OccurredAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert error record: %w", err)
	}
	return res.LastInsertId()
}

// InsertPerformance stores one performance sample and returns its ID.
func (db *DB) InsertPerformance(ctx context.Context, sample models.PerformanceSample) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO performance_metrics (organization_id, metric, value, occurred_at)
		VALUES (?, ?, ?, ?)`,
		sample.OrganizationID, sample.Metric, sample.Value, sample.OccurredAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert performance sample: %w", err)
	}
	return res.LastInsertId()
}

// QueryErrors returns the organization's error records at or after since, oldest first.
func (db *DB) QueryErrors(ctx context.Context, organizationID int64, since time.Time) ([]models.ErrorRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, organization_id, type, severity, message, component, occurred_at
		FROM error_logs
		WHERE organization_id = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC, id ASC`,
		organizationID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query error records: %w", err)
	}
	defer rows.Close()

	records := []models.ErrorRecord{}
	for rows.Next() {
		var (
			rec        models.ErrorRecord
			severity   string
			component  sql.NullString
			occurredAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.OrganizationID, &rec.Type, &severity, &rec.Message, &component, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan error record: %w", err)
		}
		rec.Severity = models.Severity(severity)
		rec.Component = component.String
		rec.OccurredAt = time.UnixMilli(occurredAt).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// QueryPerformance returns the organization's samples at or after since, oldest first.
func (db *DB) QueryPerformance(ctx context.Context, organizationID int64, since time.Time) ([]models.PerformanceSample, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, organization_id, metric, value, occurred_at
		FROM performance_metrics
		WHERE organization_id = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC, id ASC`,
		organizationID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance samples: %w", err)
	}
	defer rows.Close()

	samples := []models.PerformanceSample{}
	for rows.Next() {
		var (
			s          models.PerformanceSample
			occurredAt int64
		)
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Metric, &s.Value, &occurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan performance sample: %w", err)
		}
		s.OccurredAt = time.UnixMilli(occurredAt).UTC()
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// SaveReport stores a generated report in the history table
func (db *DB) SaveReport(ctx context.Context, report *models.HealthReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO insight_reports (id, organization_id, timeframe, generated_at, health_score, fallback, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.OrganizationID,
		string(report.Timeframe),
		report.GeneratedAt,
		report.Insights.SystemHealth.Score,
		report.Fallback,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetReport retrieves a single report by ID. A missing report yields nil, nil.
func (db *DB) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, organization_id, timeframe, generated_at, health_score, fallback, report_json
		FROM insight_reports
		WHERE id = ?`, id)

	stored, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ListReports retrieves an organization's reports, newest first
func (db *DB) ListReports(ctx context.Context, organizationID int64, limit, offset int) ([]StoredReport, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, organization_id, timeframe, generated_at, health_score, fallback, report_json
		FROM insight_reports
		WHERE organization_id = ?
		ORDER BY generated_at DESC
		LIMIT ? OFFSET ?`,
		organizationID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []StoredReport{}
	for rows.Next() {
		stored, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *stored)
	}

	return reports, rows.Err()
}

// CountReports returns the number of stored reports for an organization
func (db *DB) CountReports(ctx context.Context, organizationID int64) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM insight_reports WHERE organization_id = ?", organizationID).Scan(&count)
	return count, err
}

// DeleteReport deletes a report by ID
func (db *DB) DeleteReport(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM insight_reports WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*StoredReport, error) {
	var (
		stored     StoredReport
		timeframe  string
		reportJSON string
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
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	stored.Timeframe = models.Timeframe(timeframe)

	if err := json.Unmarshal([]byte(reportJSON), &stored.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &stored, nil
}
