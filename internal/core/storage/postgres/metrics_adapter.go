package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/listly-app/listly-metrics/internal/core/rollup"
)

// MetricAdapter implements storage.MetricStore using PostgreSQL. It shares
// the event adapter's connection pool.
//
// Two write paths exist on purpose:
//   - RecordInteraction adds on top of existing counters (write-through,
//     approximate for unique visitors);
//   - ReplaceAll overwrites counters from a fresh recomputation (batch,
//     authoritative).
type MetricAdapter struct {
	db  *sql.DB
	now func() time.Time
}

// NewMetricAdapter creates a MetricAdapter sharing the given connection.
func NewMetricAdapter(db *sql.DB) *MetricAdapter {
	return &MetricAdapter{db: db, now: time.Now}
}

// RecordInteraction upserts today's row for the entity. On insert the
// matching bucket counter starts at 1 and unique_visitors is seeded from the
// actor's presence; on conflict only the bucket counter is incremented.
func (a *MetricAdapter) RecordInteraction(
	ctx context.Context,
	day, entityID string,
	bucket rollup.Bucket,
	hasActor bool,
) error {
	var views, clicks, shares int64
	switch bucket {
	case rollup.BucketView:
		views = 1
	case rollup.BucketShare:
		shares = 1
	default:
		clicks = 1
	}

	var visitors int64
	if hasActor {
		visitors = 1
	}

	_, err := a.db.ExecContext(ctx, queryRecordInteraction,
		day, entityID, views, clicks, shares, visitors, a.now().UTC())
	if err != nil {
		return fmt.Errorf("record interaction (%s, %s): %w", day, entityID, err)
	}
	return nil
}

// ReplaceAll upserts every row with full counter replacement in one
// transaction. Either every row lands or none does, so a failed batch run
// leaves the previous authoritative state intact.
func (a *MetricAdapter) ReplaceAll(ctx context.Context, rows []rollup.DailyMetric) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("metric replace: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, queryReplaceMetric)
	if err != nil {
		return fmt.Errorf("metric replace: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := a.now().UTC()
	for _, m := range rows {
		if _, err := stmt.ExecContext(ctx,
			m.Day,
			m.EntityID,
			m.Views,
			m.Clicks,
			m.Shares,
			m.UniqueVisitors,
			now,
		); err != nil {
			return fmt.Errorf("metric replace: upsert (%s, %s): %w", m.Day, m.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("metric replace: commit: %w", err)
	}

	slog.Info("[Postgres] Replaced daily metrics", "rows", len(rows))
	return nil
}

// EntityRange returns stored rows for one entity between two day keys
// inclusive, ordered by day.
func (a *MetricAdapter) EntityRange(ctx context.Context, entityID, fromDay, toDay string) ([]rollup.DailyMetric, error) {
	rows, err := a.db.QueryContext(ctx, queryEntityRange, entityID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("query entity range: %w", err)
	}
	defer rows.Close()

	var metrics []rollup.DailyMetric
	for rows.Next() {
		var m rollup.DailyMetric
		if err := rows.Scan(&m.Day, &m.EntityID, &m.Views, &m.Clicks, &m.Shares, &m.UniqueVisitors); err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric rows: %w", err)
	}

	return metrics, nil
}

// EntityTotals sums views/clicks/shares across all rows for the entity.
func (a *MetricAdapter) EntityTotals(ctx context.Context, entityID string) (rollup.LifetimeTotals, error) {
	var totals rollup.LifetimeTotals
	err := a.db.QueryRowContext(ctx, queryEntityTotals, entityID).
		Scan(&totals.Views, &totals.Clicks, &totals.Shares)
	if err != nil {
		return rollup.LifetimeTotals{}, fmt.Errorf("query entity totals: %w", err)
	}
	return totals, nil
}

// GlobalRange sums views and clicks across all entities per day.
func (a *MetricAdapter) GlobalRange(ctx context.Context, fromDay, toDay string) ([]rollup.GlobalPoint, error) {
	rows, err := a.db.QueryContext(ctx, queryGlobalRange, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("query global range: %w", err)
	}
	defer rows.Close()

	var points []rollup.GlobalPoint
	for rows.Next() {
		var p rollup.GlobalPoint
		if err := rows.Scan(&p.Day, &p.Views, &p.Clicks); err != nil {
			return nil, fmt.Errorf("scan global row: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate global rows: %w", err)
	}

	return points, nil
}

// CategoryCounts groups the directory reference collection by category.
func (a *MetricAdapter) CategoryCounts(ctx context.Context) ([]rollup.CategoryCount, error) {
	rows, err := a.db.QueryContext(ctx, queryCategoryCounts)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	var counts []rollup.CategoryCount
	for rows.Next() {
		var c rollup.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return counts, nil
}
