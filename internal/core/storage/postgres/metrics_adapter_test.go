package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listly-app/listly-metrics/internal/core/rollup"
)

func newMockMetricAdapter(t *testing.T) (*MetricAdapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := NewMetricAdapter(db)
	adapter.now = func() time.Time { return testNow }

	return adapter, mock, db
}

func TestMetricAdapter_RecordInteraction(t *testing.T) {
	cases := []struct {
		name     string
		bucket   rollup.Bucket
		hasActor bool
		views    int64
		clicks   int64
		shares   int64
		visitors int64
	}{
		{name: "view with actor", bucket: rollup.BucketView, hasActor: true, views: 1, visitors: 1},
		{name: "anonymous view", bucket: rollup.BucketView, views: 1},
		{name: "share", bucket: rollup.BucketShare, hasActor: true, shares: 1, visitors: 1},
		{name: "click", bucket: rollup.BucketClick, clicks: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockMetricAdapter(t)
			defer db.Close()

			mock.ExpectExec(regexp.QuoteMeta(queryRecordInteraction)).
				WithArgs("2026-09-01", "biz-1", tc.views, tc.clicks, tc.shares, tc.visitors, testNow).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := adapter.RecordInteraction(context.Background(), "2026-09-01", "biz-1", tc.bucket, tc.hasActor)
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMetricAdapter_RecordInteraction_Error(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(queryRecordInteraction)).
		WillReturnError(errors.New("deadlock detected"))

	err := adapter.RecordInteraction(context.Background(), "2026-09-01", "biz-1", rollup.BucketView, false)
	require.ErrorContains(t, err, "record interaction")
}

func TestMetricAdapter_ReplaceAll(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	rows := []rollup.DailyMetric{
		{Day: "2026-08-31", EntityID: "biz-1", Views: 10, Clicks: 3, Shares: 1, UniqueVisitors: 4},
		{Day: "2026-09-01", EntityID: "biz-2", Views: 5, UniqueVisitors: 2},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(queryReplaceMetric))
	prep.ExpectExec().
		WithArgs("2026-08-31", "biz-1", int64(10), int64(3), int64(1), int64(4), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("2026-09-01", "biz-2", int64(5), int64(0), int64(0), int64(2), testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := adapter.ReplaceAll(context.Background(), rows)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricAdapter_ReplaceAll_EmptyIsNoop(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	// No transaction should be opened.
	require.NoError(t, adapter.ReplaceAll(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricAdapter_ReplaceAll_RollsBackOnFailure(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	rows := []rollup.DailyMetric{
		{Day: "2026-09-01", EntityID: "biz-1", Views: 1},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(queryReplaceMetric))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := adapter.ReplaceAll(context.Background(), rows)
	require.ErrorContains(t, err, "metric replace: upsert")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricAdapter_EntityRange(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	result := sqlmock.NewRows([]string{"day", "entity_id", "views", "clicks", "shares", "unique_visitors"}).
		AddRow("2026-08-30", "biz-1", int64(7), int64(2), int64(0), int64(3)).
		AddRow("2026-08-31", "biz-1", int64(9), int64(1), int64(1), int64(5))

	mock.ExpectQuery(regexp.QuoteMeta(queryEntityRange)).
		WithArgs("biz-1", "2026-08-26", "2026-09-01").
		WillReturnRows(result)

	metrics, err := adapter.EntityRange(context.Background(), "biz-1", "2026-08-26", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, rollup.DailyMetric{
		Day: "2026-08-30", EntityID: "biz-1", Views: 7, Clicks: 2, UniqueVisitors: 3,
	}, metrics[0])
	assert.Equal(t, int64(9), metrics[1].Views)
}

func TestMetricAdapter_EntityTotals(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryEntityTotals)).
		WithArgs("biz-1").
		WillReturnRows(sqlmock.NewRows([]string{"views", "clicks", "shares"}).
			AddRow(int64(120), int64(30), int64(4)))

	totals, err := adapter.EntityTotals(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, rollup.LifetimeTotals{Views: 120, Clicks: 30, Shares: 4}, totals)
}

func TestMetricAdapter_GlobalRange(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryGlobalRange)).
		WithArgs("2026-08-26", "2026-09-01").
		WillReturnRows(sqlmock.NewRows([]string{"day", "views", "clicks"}).
			AddRow("2026-08-30", int64(42), int64(11)))

	points, err := adapter.GlobalRange(context.Background(), "2026-08-26", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, rollup.GlobalPoint{Day: "2026-08-30", Views: 42, Clicks: 11}, points[0])
}

func TestMetricAdapter_CategoryCounts(t *testing.T) {
	adapter, mock, db := newMockMetricAdapter(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(queryCategoryCounts)).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("restaurants", int64(12)).
			AddRow("plumbing", int64(5)))

	counts, err := adapter.CategoryCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, rollup.CategoryCount{Category: "restaurants", Count: 12}, counts[0])
}
