package rollup

import (
	"sort"

	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
)

// Build recomputes daily metrics from scratch for every event in the input.
// It is a pure Extract+Transform step: group by (UTC day, entity), count the
// view/share/click buckets, and take the exact cardinality of distinct
// non-empty actor IDs as unique visitors.
//
// Because the counters are recomputed rather than incremented, loading the
// result with full-replace upserts makes the batch path idempotent: any
// drift introduced by the write-through cache is corrected on the next run.
func Build(events []*v1.Event, taxonomy *Taxonomy) map[Key]DailyMetric {
	metrics := make(map[Key]DailyMetric)
	actors := make(map[Key]map[string]struct{})

	for _, evt := range events {
		key := Key{Day: DayOf(evt.OccurredAt), EntityID: evt.EntityID}

		m := metrics[key]
		m.Day = key.Day
		m.EntityID = key.EntityID

		switch taxonomy.BucketFor(evt.Type) {
		case BucketView:
			m.Views++
		case BucketShare:
			m.Shares++
		default:
			m.Clicks++
		}

		if evt.ActorID != "" {
			set, ok := actors[key]
			if !ok {
				set = make(map[string]struct{})
				actors[key] = set
			}
			set[evt.ActorID] = struct{}{}
		}
		m.UniqueVisitors = int64(len(actors[key]))

		metrics[key] = m
	}

	return metrics
}

// Sorted flattens a metric map into a slice ordered by (day, entity).
// Deterministic ordering keeps batch load transactions in a stable lock
// order and makes test output reproducible.
func Sorted(metrics map[Key]DailyMetric) []DailyMetric {
	rows := make([]DailyMetric, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Day != rows[j].Day {
			return rows[i].Day < rows[j].Day
		}
		return rows[i].EntityID < rows[j].EntityID
	})
	return rows
}
