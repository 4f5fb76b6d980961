package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
	"github.com/listly-app/listly-metrics/internal/core/rollup"
	"github.com/listly-app/listly-metrics/internal/core/storage"
)

const (
	defaultDays = 7
	maxDays     = 365
)

var (
	// ErrInvalidQuery marks request validation errors that map to HTTP 400.
	ErrInvalidQuery = errors.New("invalid report query")

	// ErrForbidden is returned when a non-admin caller requests an
	// admin-only report. The role check fails fast rather than silently
	// returning data.
	ErrForbidden = errors.New("forbidden")
)

// Service is the read path over the aggregate store. Every query tolerates
// an empty store: missing days come back as zero-filled rows, never errors.
type Service struct {
	metrics storage.MetricStore
	nowFn   func() time.Time

	// Admin dashboards poll the same global scans in lockstep; singleflight
	// collapses concurrent identical queries into one database round trip.
	flight singleflight.Group
}

// NewService creates a reporting service.
func NewService(metrics storage.MetricStore) *Service {
	return &Service{
		metrics: metrics,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// EntityMetrics returns one row per calendar day for the last `days` days
// ending today, oldest first. Days with no aggregate row are synthesized as
// zero rows so dashboards never need null handling.
func (s *Service) EntityMetrics(ctx context.Context, entityID string, days int) (*EntityMetricsResponse, error) {
	if entityID == "" {
		return nil, invalidQueryf("entity_id is required")
	}
	days, err := clampDays(days)
	if err != nil {
		return nil, err
	}

	window := rollup.LastNDays(s.nowFn(), days)
	fromDay, toDay := window[0], window[len(window)-1]

	stored, err := s.metrics.EntityRange(ctx, entityID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("query entity metrics: %w", err)
	}

	byDay := make(map[string]rollup.DailyMetric, len(stored))
	for _, m := range stored {
		byDay[m.Day] = m
	}

	series := make([]rollup.DailyMetric, 0, days)
	for _, day := range window {
		if m, ok := byDay[day]; ok {
			series = append(series, m)
			continue
		}
		series = append(series, rollup.Zero(day, entityID))
	}

	return &EntityMetricsResponse{
		EntityID: entityID,
		Days:     days,
		Metrics:  series,
	}, nil
}

// EntityLifetime sums views/clicks/shares across every stored day for the
// entity. Unique visitors are not summed; per-day cardinalities are not
// additive. The derived rates are zero when there are no views.
func (s *Service) EntityLifetime(ctx context.Context, entityID string) (*LifetimeResponse, error) {
	if entityID == "" {
		return nil, invalidQueryf("entity_id is required")
	}

	totals, err := s.metrics.EntityTotals(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("query lifetime totals: %w", err)
	}

	return &LifetimeResponse{
		EntityID:         entityID,
		Views:            totals.Views,
		Clicks:           totals.Clicks,
		Shares:           totals.Shares,
		ClickThroughRate: rate(totals.Clicks, totals.Views),
		ShareRate:        rate(totals.Shares, totals.Views),
	}, nil
}

// GlobalTimeSeries sums views and clicks across all entities per day for the
// last `days` days. Admin only.
func (s *Service) GlobalTimeSeries(ctx context.Context, caller v1.Caller, days int) (*GlobalSeriesResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	days, err := clampDays(days)
	if err != nil {
		return nil, err
	}

	window := rollup.LastNDays(s.nowFn(), days)
	fromDay, toDay := window[0], window[len(window)-1]

	key := fmt.Sprintf("global:%s:%s", fromDay, toDay)
	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return s.metrics.GlobalRange(ctx, fromDay, toDay)
	})
	if err != nil {
		return nil, fmt.Errorf("query global series: %w", err)
	}
	points := v.([]rollup.GlobalPoint)

	byDay := make(map[string]rollup.GlobalPoint, len(points))
	for _, p := range points {
		byDay[p.Day] = p
	}

	series := make([]rollup.GlobalPoint, 0, days)
	for _, day := range window {
		if p, ok := byDay[day]; ok {
			series = append(series, p)
			continue
		}
		series = append(series, rollup.GlobalPoint{Day: day})
	}

	return &GlobalSeriesResponse{Days: days, Series: series}, nil
}

// CategoryDistribution groups directory entities by category. Admin only.
// Reference data, not event-derived; served here because the same dashboard
// consumes it.
func (s *Service) CategoryDistribution(ctx context.Context, caller v1.Caller) (*CategoryDistributionResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	v, err, _ := s.flight.Do("categories", func() (interface{}, error) {
		return s.metrics.CategoryCounts(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query category distribution: %w", err)
	}
	counts := v.([]rollup.CategoryCount)

	if counts == nil {
		counts = []rollup.CategoryCount{}
	}
	return &CategoryDistributionResponse{Categories: counts}, nil
}

func clampDays(days int) (int, error) {
	if days == 0 {
		return defaultDays, nil
	}
	if days < 0 {
		return 0, invalidQueryf("days must be positive, got %d", days)
	}
	if days > maxDays {
		return 0, invalidQueryf("days must be at most %d, got %d", maxDays, days)
	}
	return days, nil
}

// rate returns num/den as a decimal rounded to 4 places, or zero when the
// denominator is zero.
func rate(num, den int64) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(num).DivRound(decimal.NewFromInt(den), 4)
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
