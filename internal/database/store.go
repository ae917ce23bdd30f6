package database

import (
	"context"
	"fmt"
	"time"

	"github.com/emirozbir/clinic-insights/internal/config"
	"github.com/emirozbir/clinic-insights/internal/models"
)

// Store is implemented by both the SQLite and the Postgres backends.
type Store interface {
	InsertError(ctx context.Context, rec models.ErrorRecord) (int64, error)
	InsertPerformance(ctx context.Context, sample models.PerformanceSample) (int64, error)
	QueryErrors(ctx context.Context, organizationID int64, since time.Time) ([]models.ErrorRecord, error)
	QueryPerformance(ctx context.Context, organizationID int64, since time.Time) ([]models.PerformanceSample, error)

	SaveReport(ctx context.Context, report *models.HealthReport) error
	GetReport(ctx context.Context, id string) (*StoredReport, error)
	ListReports(ctx context.Context, organizationID int64, limit, offset int) ([]StoredReport, error)
	CountReports(ctx context.Context, organizationID int64) (int, error)
	DeleteReport(ctx context.Context, id string) error

	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*PostgresDB)(nil)
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite", "sqlite3":
		return New(cfg.Path)
	case "postgres", "postgresql":
		if cfg.URL == "" {
			return nil, fmt.Errorf("database url is required for driver %q", cfg.Driver)
		}
		return NewPostgres(ctx, cfg.URL, cfg.MaxConns, cfg.MinConns)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
