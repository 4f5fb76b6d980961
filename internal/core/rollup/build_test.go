package rollup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
)

func evt(entityID, eventType, actorID string, occurredAt time.Time) *v1.Event {
	return &v1.Event{
		ID:         "evt-" + entityID + "-" + eventType + occurredAt.Format("150405.000"),
		EntityID:   entityID,
		Type:       eventType,
		ActorID:    actorID,
		OccurredAt: occurredAt,
	}
}

func TestBuild_CountsPerBucket(t *testing.T) {
	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	events := []*v1.Event{
		evt("biz-1", "view", "", day),
		evt("biz-1", "view", "", day.Add(time.Hour)),
		evt("biz-1", "share", "", day.Add(2*time.Hour)),
		evt("biz-1", "click_website", "", day.Add(3*time.Hour)),
		evt("biz-1", "click_call", "", day.Add(4*time.Hour)),
		evt("biz-1", "click_whatsapp", "", day.Add(5*time.Hour)),
	}

	metrics := Build(events, DefaultTaxonomy())
	require.Len(t, metrics, 1)

	m := metrics[Key{Day: "2026-08-30", EntityID: "biz-1"}]
	assert.Equal(t, int64(2), m.Views)
	assert.Equal(t, int64(1), m.Shares)
	assert.Equal(t, int64(3), m.Clicks)
	assert.Equal(t, int64(0), m.UniqueVisitors)
}

func TestBuild_UnknownTypeBucketsAsClick(t *testing.T) {
	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	events := []*v1.Event{
		evt("biz-1", "click_telegram", "", day),
		evt("biz-1", "bookmark", "", day),
	}

	metrics := Build(events, DefaultTaxonomy())

	m := metrics[Key{Day: "2026-08-30", EntityID: "biz-1"}]
	assert.Equal(t, int64(2), m.Clicks)
	assert.Equal(t, int64(0), m.Views)
	assert.Equal(t, int64(0), m.Shares)
}

func TestBuild_UniqueVisitorCardinality(t *testing.T) {
	day := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	// Three events from alice plus one from bob: cardinality 2, not 4.
	events := []*v1.Event{
		evt("biz-1", "view", "user:alice", day),
		evt("biz-1", "view", "user:alice", day.Add(time.Minute)),
		evt("biz-1", "click_website", "user:alice", day.Add(2*time.Minute)),
		evt("biz-1", "view", "user:bob", day.Add(3*time.Minute)),
		// Anonymous events never count toward the cardinality.
		evt("biz-1", "view", "", day.Add(4*time.Minute)),
	}

	metrics := Build(events, DefaultTaxonomy())

	m := metrics[Key{Day: "2026-08-30", EntityID: "biz-1"}]
	assert.Equal(t, int64(2), m.UniqueVisitors)
	assert.Equal(t, int64(4), m.Views)
}

func TestBuild_GroupsByUTCDayAndEntity(t *testing.T) {
	// 23:30 UTC and 00:30 UTC the next day land in different buckets even
	// though they are an hour apart.
	lateNight := time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC)
	earlyMorning := time.Date(2026, 8, 30, 0, 30, 0, 0, time.UTC)

	events := []*v1.Event{
		evt("biz-1", "view", "", lateNight),
		evt("biz-1", "view", "", earlyMorning),
		evt("biz-2", "view", "", earlyMorning),
	}

	metrics := Build(events, DefaultTaxonomy())
	require.Len(t, metrics, 3)

	assert.Equal(t, int64(1), metrics[Key{Day: "2026-08-29", EntityID: "biz-1"}].Views)
	assert.Equal(t, int64(1), metrics[Key{Day: "2026-08-30", EntityID: "biz-1"}].Views)
	assert.Equal(t, int64(1), metrics[Key{Day: "2026-08-30", EntityID: "biz-2"}].Views)
}

func TestBuild_NonUTCTimestampsBucketByUTCDate(t *testing.T) {
	tz := time.FixedZone("UTC+9", 9*60*60)
	// 2026-08-30 05:00 +09:00 is 2026-08-29 20:00 UTC.
	local := time.Date(2026, 8, 30, 5, 0, 0, 0, tz)

	metrics := Build([]*v1.Event{evt("biz-1", "view", "", local)}, DefaultTaxonomy())

	_, ok := metrics[Key{Day: "2026-08-29", EntityID: "biz-1"}]
	assert.True(t, ok, "expected bucketing by the UTC date")
}

func TestBuild_Deterministic(t *testing.T) {
	day := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	events := []*v1.Event{
		evt("biz-1", "view", "user:alice", day),
		evt("biz-2", "share", "user:bob", day),
		evt("biz-1", "click_call", "", day.Add(time.Hour)),
	}

	first := Build(events, DefaultTaxonomy())
	second := Build(events, DefaultTaxonomy())
	assert.Equal(t, first, second)
	assert.Equal(t, Sorted(first), Sorted(second))
}

func TestBuild_Empty(t *testing.T) {
	metrics := Build(nil, DefaultTaxonomy())
	assert.Empty(t, metrics)
	assert.Empty(t, Sorted(metrics))
}

func TestSorted_OrderedByDayThenEntity(t *testing.T) {
	metrics := map[Key]DailyMetric{
		{Day: "2026-08-30", EntityID: "biz-2"}: {Day: "2026-08-30", EntityID: "biz-2"},
		{Day: "2026-08-29", EntityID: "biz-9"}: {Day: "2026-08-29", EntityID: "biz-9"},
		{Day: "2026-08-30", EntityID: "biz-1"}: {Day: "2026-08-30", EntityID: "biz-1"},
	}

	rows := Sorted(metrics)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-08-29", rows[0].Day)
	assert.Equal(t, "biz-1", rows[1].EntityID)
	assert.Equal(t, "biz-2", rows[2].EntityID)
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)

	days := LastNDays(now, 7)
	require.Len(t, days, 7)
	assert.Equal(t, "2026-08-26", days[0])
	assert.Equal(t, "2026-09-01", days[6])

	// Consecutive calendar days, no gaps.
	for i := 1; i < len(days); i++ {
		prev, err := time.Parse(DayFormat, days[i-1])
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 0, 1).Format(DayFormat), days[i])
	}

	assert.Nil(t, LastNDays(now, 0))
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, "2026-08-30", DayOf(time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, "2026-08-31", DayOf(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
}
