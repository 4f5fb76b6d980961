package rollup

import "time"

// DayFormat is the canonical calendar-day key format. Days are always derived
// from the event timestamp's UTC date, so two events on opposite sides of a
// local midnight can still share a bucket.
const DayFormat = "2006-01-02"

// Key uniquely identifies one daily aggregate row.
type Key struct {
	Day      string // YYYY-MM-DD, UTC
	EntityID string
}

// DailyMetric is the per-day, per-entity rollup row. At most one row exists
// per (Day, EntityID); both the batch loader and the write-through path
// upsert by that composite key.
type DailyMetric struct {
	Day            string `json:"date"`
	EntityID       string `json:"entity_id"`
	Views          int64  `json:"views"`
	Clicks         int64  `json:"clicks"`
	Shares         int64  `json:"shares"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// Zero returns an empty metric row for a day/entity pair. Reporting
// synthesizes these for days with no recorded events so dashboards never
// see gaps or nulls.
func Zero(day, entityID string) DailyMetric {
	return DailyMetric{Day: day, EntityID: entityID}
}

// DayOf returns the calendar-day key for a timestamp.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// LastNDays returns the last n calendar-day keys ending at (and including)
// the day of now, oldest first.
func LastNDays(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	days := make([]string, 0, n)
	today := now.UTC().Truncate(24 * time.Hour)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i).Format(DayFormat))
	}
	return days
}

// LifetimeTotals are the all-time counter sums for one entity. Unique
// visitors are deliberately absent: per-day cardinalities are not additive.
type LifetimeTotals struct {
	Views  int64 `json:"views"`
	Clicks int64 `json:"clicks"`
	Shares int64 `json:"shares"`
}

// GlobalPoint is one day of the cross-entity series.
type GlobalPoint struct {
	Day    string `json:"date"`
	Views  int64  `json:"views"`
	Clicks int64  `json:"clicks"`
}

// CategoryCount is one slice of the directory category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
