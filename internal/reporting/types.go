package reporting

import (
	"github.com/shopspring/decimal"

	"github.com/listly-app/listly-metrics/internal/core/rollup"
)

// EntityMetricsResponse is the per-entity time series, zero-filled and
// oldest first.
type EntityMetricsResponse struct {
	EntityID string               `json:"entity_id"`
	Days     int                  `json:"days"`
	Metrics  []rollup.DailyMetric `json:"metrics"`
}

// LifetimeResponse carries the all-time sums plus derived engagement rates.
// The rates are illustrative dashboard numbers, computed with exact decimal
// arithmetic so repeated serialization never drifts.
type LifetimeResponse struct {
	EntityID         string          `json:"entity_id"`
	Views            int64           `json:"views"`
	Clicks           int64           `json:"clicks"`
	Shares           int64           `json:"shares"`
	ClickThroughRate decimal.Decimal `json:"click_through_rate"`
	ShareRate        decimal.Decimal `json:"share_rate"`
}

// GlobalSeriesResponse is the cross-entity daily series. Admin only.
type GlobalSeriesResponse struct {
	Days   int                  `json:"days"`
	Series []rollup.GlobalPoint `json:"series"`
}

// CategoryDistributionResponse groups directory entities by category. Admin only.
type CategoryDistributionResponse struct {
	Categories []rollup.CategoryCount `json:"categories"`
}
