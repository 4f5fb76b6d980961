package postgres

import (
	"database/sql"
	"fmt"

	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans a database row into an Event. Compatible with both
// sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var actorID sql.NullString

	err := row.Scan(
		&evt.ID,
		&evt.EntityID,
		&evt.Type,
		&actorID,
		&evt.OccurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.ActorID = actorID.String
	evt.OccurredAt = evt.OccurredAt.UTC()
	return &evt, nil
}

// nullableString maps the empty string to SQL NULL. Anonymous visitors carry
// no actor_id, and NULL keeps them out of distinct-actor queries.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
