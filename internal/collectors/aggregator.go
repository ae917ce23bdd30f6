package collectors

import (
	"context"
	"fmt"
	"time"

	"github.com/emirozbir/clinic-insights/internal/models"
)

// Store is the read side of the telemetry storage used by the aggregator.
type Store interface {
	QueryErrors(ctx context.Context, organizationID int64, since time.Time) ([]models.ErrorRecord, error)
	QueryPerformance(ctx context.Context, organizationID int64, since time.Time) ([]models.PerformanceSample, error)
}

// Aggregator reads the error and performance records of one organization window.
type Aggregator struct {
	store Store
	now   func() time.Time
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{
		store: store,
		now:   time.Now,
	}
}

// WithClock replaces the time source used to compute window starts.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Fetch returns the records of organizationID that occurred within timeframe.
// Argument errors wrap models.ErrInvalidArgument and storage errors wrap
// models.ErrDataAccess.
func (a *Aggregator) Fetch(ctx context.Context, organizationID int64, timeframe models.Timeframe) ([]models.ErrorRecord, []models.PerformanceSample, error) {
	if organizationID <= 0 {
		return nil, nil, fmt.Errorf("%w: organization id must be positive, got %d", models.ErrInvalidArgument, organizationID)
	}
	if !timeframe.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown timeframe %q", models.ErrInvalidArgument, timeframe)
	}

	since := models.WindowStart(a.now(), timeframe.Duration())

	errs, err := a.store.QueryErrors(ctx, organizationID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to query errors: %v", models.ErrDataAccess, err)
	}
	samples, err := a.store.QueryPerformance(ctx, organizationID, since)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to query performance: %v", models.ErrDataAccess, err)
	}

	return filterErrors(errs, organizationID, since), filterSamples(samples, organizationID, since), nil
}

func filterErrors(records []models.ErrorRecord, organizationID int64, since time.Time) []models.ErrorRecord {
	filtered := make([]models.ErrorRecord, 0, len(records))
	for _, rec := range records {
		if rec.OrganizationID == organizationID && !rec.OccurredAt.Before(since) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func filterSamples(samples []models.PerformanceSample, organizationID int64, since time.Time) []models.PerformanceSample {
	filtered := make([]models.PerformanceSample, 0, len(samples))
	for _, s := range samples {
		if s.OrganizationID == organizationID && !s.OccurredAt.Before(since) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
