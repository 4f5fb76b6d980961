package v1

import (
	"fmt"
	"time"
)

// Event is a single recorded interaction with a directory entity.
// Events are append-only: once stored they are never mutated, and the only
// deletion is bulk compaction by age after the batch rollup has consumed them.
type Event struct {
	// ID is a unique identifier assigned by the event store on append.
	ID string `json:"id"`

	// EntityID identifies the business/listing the interaction is attributed to.
	EntityID string `json:"entity_id"`

	// Type is the interaction kind: "view", "share", or one of the click
	// subtypes ("click_website", "click_call", ...). Types outside the known
	// taxonomy are accepted and bucketed as generic clicks.
	Type string `json:"type"`

	// ActorID identifies the acting user. Empty for anonymous visitors.
	ActorID string `json:"actor_id,omitempty"`

	// OccurredAt is the server-side instant of the interaction, assigned by
	// the event store on append. Always UTC; the rollup buckets by its
	// calendar day.
	OccurredAt time.Time `json:"occurred_at"`
}

// SubmitEventRequest is the ingestion request body. ID and OccurredAt are
// server-assigned and must not be supplied by the client.
type SubmitEventRequest struct {
	EntityID string `json:"entity_id"`
	Type     string `json:"type"`
	ActorID  string `json:"actor_id,omitempty"`
}

// Validate checks the envelope fields a client is responsible for.
func (r *SubmitEventRequest) Validate() error {
	if r.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if r.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}
