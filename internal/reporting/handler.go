package reporting

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/listly-app/listly-metrics/internal/aggregation"
	v1 "github.com/listly-app/listly-metrics/internal/api/v1"
	httperr "github.com/listly-app/listly-metrics/internal/core/errors"
)

// RollupTrigger starts an on-demand rollup run. Implemented by
// aggregation.Scheduler.
type RollupTrigger interface {
	TriggerNow(ctx context.Context) (aggregation.JobStats, error)
}

// RegisterRoutes registers the reporting and admin routes.
// trigger may be nil when the rollup scheduler is disabled.
func (s *Service) RegisterRoutes(r gin.IRouter, trigger RollupTrigger) {
	r.GET("/v1/entities/:entity_id/metrics", s.HandleEntityMetrics)
	r.GET("/v1/entities/:entity_id/lifetime", s.HandleEntityLifetime)
	r.GET("/v1/reports/global", s.HandleGlobalSeries)
	r.GET("/v1/reports/categories", s.HandleCategoryDistribution)

	if trigger != nil {
		r.POST("/v1/admin/rollup/run", s.handleRollupTrigger(trigger))
	}
}

// HandleEntityMetrics handles GET /v1/entities/:entity_id/metrics?days=7
func (s *Service) HandleEntityMetrics(c *gin.Context) {
	days, ok := daysParam(c)
	if !ok {
		return
	}

	resp, err := s.EntityMetrics(c.Request.Context(), c.Param("entity_id"), days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleEntityLifetime handles GET /v1/entities/:entity_id/lifetime
func (s *Service) HandleEntityLifetime(c *gin.Context) {
	resp, err := s.EntityLifetime(c.Request.Context(), c.Param("entity_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGlobalSeries handles GET /v1/reports/global?days=30 (admin only).
func (s *Service) HandleGlobalSeries(c *gin.Context) {
	days, ok := daysParam(c)
	if !ok {
		return
	}

	caller := v1.CallerFromHeaders(c.Request.Header)
	resp, err := s.GlobalTimeSeries(c.Request.Context(), caller, days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCategoryDistribution handles GET /v1/reports/categories (admin only).
func (s *Service) HandleCategoryDistribution(c *gin.Context) {
	caller := v1.CallerFromHeaders(c.Request.Header)
	resp, err := s.CategoryDistribution(c.Request.Context(), caller)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleRollupTrigger handles POST /v1/admin/rollup/run (admin only).
// A run already in flight is reported as skipped rather than queued; the
// scheduler never overlaps invocations.
func (s *Service) handleRollupTrigger(trigger RollupTrigger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := v1.CallerFromHeaders(c.Request.Header)
		if !caller.IsAdmin() {
			writeServiceError(c, ErrForbidden)
			return
		}

		stats, err := trigger.TriggerNow(c.Request.Context())
		if err != nil {
			if errors.Is(err, aggregation.ErrRunInProgress) {
				c.JSON(http.StatusConflict, gin.H{"status": "skipped", "reason": "run in progress"})
				return
			}
			c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Rollup run failed",
				Details:   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":           "completed",
			"events_scanned":   stats.EventsScanned,
			"rows_replaced":    stats.RowsReplaced,
			"events_compacted": stats.EventsCompacted,
		})
	}
}

func daysParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("days", "0")
	days, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid days parameter",
			Details:   err.Error(),
		})
		return 0, false
	}
	return days, true
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, httperr.ErrorResponse{
			ErrorType: httperr.HttpForbiddenError,
			Message:   "Admin role required",
		})
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid report query",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query reports",
			Details:   err.Error(),
		})
	}
}
