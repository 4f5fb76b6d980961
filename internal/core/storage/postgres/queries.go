package postgres

// SQL for the two analytics collections plus the directory reference table.

const (
	// queryAppendEvent inserts a raw interaction event. IDs are assigned by
	// the adapter (UUID), so a plain INSERT is enough.
	queryAppendEvent = `
		INSERT INTO events (id, entity_id, type, actor_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	// queryListAllEvents feeds the batch rollup. Full scan is deliberate:
	// compaction keeps the table bounded to the retention window.
	queryListAllEvents = `
		SELECT id, entity_id, type, actor_id, occurred_at
		FROM events
		ORDER BY occurred_at ASC, id ASC
	`

	// queryDeleteEventsBefore is the compaction step. Strictly-before, so an
	// event exactly at the cutoff survives.
	queryDeleteEventsBefore = `
		DELETE FROM events
		WHERE occurred_at < $1
	`

	// queryRecordInteraction is the write-through upsert. On conflict the
	// bucket counters are added on top, but unique_visitors is intentionally
	// missing from the update list: it is only seeded on row creation and
	// owned by the batch rollup afterwards.
	queryRecordInteraction = `
		INSERT INTO daily_metrics (
			day, entity_id, views, clicks, shares, unique_visitors, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (day, entity_id) DO UPDATE SET
			views      = daily_metrics.views + EXCLUDED.views,
			clicks     = daily_metrics.clicks + EXCLUDED.clicks,
			shares     = daily_metrics.shares + EXCLUDED.shares,
			updated_at = EXCLUDED.updated_at
	`

	// queryReplaceMetric is the batch load upsert: counters are replaced
	// wholesale, never added on top. This is what makes the rollup
	// idempotent regardless of how many times it runs.
	queryReplaceMetric = `
		INSERT INTO daily_metrics (
			day, entity_id, views, clicks, shares, unique_visitors, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (day, entity_id) DO UPDATE SET
			views           = EXCLUDED.views,
			clicks          = EXCLUDED.clicks,
			shares          = EXCLUDED.shares,
			unique_visitors = EXCLUDED.unique_visitors,
			updated_at      = EXCLUDED.updated_at
	`

	queryEntityRange = `
		SELECT to_char(day, 'YYYY-MM-DD'), entity_id, views, clicks, shares, unique_visitors
		FROM daily_metrics
		WHERE entity_id = $1
		  AND day >= $2
		  AND day <= $3
		ORDER BY day ASC
	`

	// queryEntityTotals COALESCEs so an entity with no rows sums to zero
	// instead of NULL.
	queryEntityTotals = `
		SELECT
			COALESCE(SUM(views), 0),
			COALESCE(SUM(clicks), 0),
			COALESCE(SUM(shares), 0)
		FROM daily_metrics
		WHERE entity_id = $1
	`

	queryGlobalRange = `
		SELECT to_char(day, 'YYYY-MM-DD'), SUM(views), SUM(clicks)
		FROM daily_metrics
		WHERE day >= $1
		  AND day <= $2
		GROUP BY day
		ORDER BY day ASC
	`

	// queryCategoryCounts reads the directory reference table owned by the
	// main directory application; this service never writes it.
	queryCategoryCounts = `
		SELECT category, COUNT(*)
		FROM directory_entities
		GROUP BY category
		ORDER BY COUNT(*) DESC, category ASC
	`
)
