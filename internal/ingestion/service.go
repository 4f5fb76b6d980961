package ingestion

import (
	"github.com/gin-gonic/gin"

	"github.com/listly-app/listly-metrics/internal/core/rollup"
	"github.com/listly-app/listly-metrics/internal/core/storage"
)

// Service accepts interaction events, appends them to the event store, and
// opportunistically updates today's aggregate row so real-time dashboards do
// not wait for the batch job.
type Service struct {
	events   storage.EventStore
	metrics  storage.MetricStore
	taxonomy *rollup.Taxonomy
}

func NewService(events storage.EventStore, metrics storage.MetricStore, taxonomy *rollup.Taxonomy) *Service {
	if events == nil {
		panic("ingestion: event store must not be nil")
	}
	if metrics == nil {
		panic("ingestion: metric store must not be nil")
	}
	if taxonomy == nil {
		taxonomy = rollup.DefaultTaxonomy()
	}
	return &Service{
		events:   events,
		metrics:  metrics,
		taxonomy: taxonomy,
	}
}

// RegisterRoutes registers the ingestion routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/events", s.SubmitHandler)
}
