package storage

import (
	"context"
	"time"

	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
	"github.com/listly-app/listly-metrics/internal/core/rollup"
)

// EventStore is the append-only raw event collection.
//
// The working set stays small because the batch rollup compacts events older
// than the retention window after each successful run, so ListAll is a
// bounded scan, not an unbounded table walk.
type EventStore interface {
	// Append assigns the event's ID and OccurredAt, then persists it.
	Append(ctx context.Context, event *v1.Event) error

	// ListAll returns every stored event ordered by occurrence time.
	ListAll(ctx context.Context) ([]*v1.Event, error)

	// DeleteOlderThan removes all events that occurred strictly before
	// cutoff and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MetricStore is the mutable daily aggregate collection plus the read-only
// directory reference data served by the same reporting surface.
type MetricStore interface {
	// RecordInteraction is the write-through path: upsert today's row for
	// the entity, setting the bucket's counter to 1 on insert or adding 1 on
	// conflict. UniqueVisitors is only seeded on insert (1 if the actor is
	// known, 0 otherwise) and never incremented here; exact cardinality
	// would require carrying a per-day actor set in the hot path. The next
	// batch run recomputes it exactly.
	RecordInteraction(ctx context.Context, day, entityID string, bucket rollup.Bucket, hasActor bool) error

	// ReplaceAll upserts every row with full counter replacement in a single
	// transaction. Rows for (day, entity) pairs not present in the input are
	// left untouched: they describe days whose raw events were already
	// compacted away, and the aggregate store is their durable record.
	ReplaceAll(ctx context.Context, rows []rollup.DailyMetric) error

	// EntityRange returns the stored rows for one entity with fromDay <= day
	// <= toDay, ordered by day. Missing days are absent, not zero-filled;
	// zero-fill is the reporting layer's job.
	EntityRange(ctx context.Context, entityID, fromDay, toDay string) ([]rollup.DailyMetric, error)

	// EntityTotals sums views/clicks/shares across all rows for the entity.
	// An entity with no rows yields zero totals, not an error.
	EntityTotals(ctx context.Context, entityID string) (rollup.LifetimeTotals, error)

	// GlobalRange sums views and clicks across all entities per day for
	// fromDay <= day <= toDay, ordered by day.
	GlobalRange(ctx context.Context, fromDay, toDay string) ([]rollup.GlobalPoint, error)

	// CategoryCounts groups the directory reference collection by category.
	CategoryCounts(ctx context.Context) ([]rollup.CategoryCount, error)
}
