package ingestion

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
	httperr "github.com/listly-app/listly-metrics/internal/core/errors"
	"github.com/listly-app/listly-metrics/internal/core/rollup"
)

const (
	msgInvalidJSON   = "Invalid JSON body"
	msgPersistFailed = "Failed to persist event"
)

// SubmitHandler handles POST /v1/events.
//
// A previously unseen entity is not an error: the write-through upsert
// self-initializes its aggregate row.
func (s *Service) SubmitHandler(c *gin.Context) {
	var req v1.SubmitEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Invalid JSON body received", "error", err)
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   msgInvalidJSON,
		})
		return
	}

	if err := req.Validate(); err != nil {
		slog.Warn("Envelope validation failed", "error", err, "entity_id", req.EntityID)
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   err.Error(),
		})
		return
	}

	evt, err := s.Submit(c.Request.Context(), req)
	if err != nil {
		slog.Error("Failed to persist event", "error", err, "entity_id", req.EntityID)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   msgPersistFailed,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"event_id": evt.ID,
	})
}

// Submit appends the event and performs the write-through update of today's
// aggregate row.
//
// The write-through counters are approximate: UniqueVisitors is only seeded
// when the row is created and never incremented afterwards. The batch rollup
// recomputes every counter exactly on its next run.
func (s *Service) Submit(ctx context.Context, req v1.SubmitEventRequest) (*v1.Event, error) {
	evt := &v1.Event{
		EntityID: req.EntityID,
		Type:     req.Type,
		ActorID:  req.ActorID,
	}

	if err := s.events.Append(ctx, evt); err != nil {
		return nil, err
	}

	day := rollup.DayOf(evt.OccurredAt)
	bucket := s.taxonomy.BucketFor(evt.Type)
	if err := s.metrics.RecordInteraction(ctx, day, evt.EntityID, bucket, evt.ActorID != ""); err != nil {
		// The event itself is durable; the next batch run rebuilds the row.
		// Still surfaced: callers must not believe the realtime counter moved.
		return nil, err
	}

	slog.Info("Recorded interaction",
		"event_id", evt.ID,
		"entity_id", evt.EntityID,
		"type", evt.Type,
		"day", day)

	return evt, nil
}
