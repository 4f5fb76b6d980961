package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/listly-app/listly-metrics/internal/core/rollup"
	"github.com/listly-app/listly-metrics/internal/core/storage"
)

// ErrRunInProgress is returned by TriggerNow when a rollup run is already in
// flight. Invocations never overlap; on-demand callers are told to retry.
var ErrRunInProgress = fmt.Errorf("rollup run already in progress")

// Scheduler runs the daily rollup on a fixed interval and once eagerly at
// startup. Overlap is prevented twice over: cron.SkipIfStillRunning guards
// the cron entries, and the atomic running flag also covers on-demand
// triggers racing a scheduled tick.
type Scheduler struct {
	interval   time.Duration
	jobTimeout time.Duration
	events     storage.EventStore
	metrics    storage.MetricStore
	taxonomy   *rollup.Taxonomy
	opts       JobOptions

	cron    *cron.Cron
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewScheduler creates a rollup scheduler. jobTimeout bounds each run so a
// stuck pass cannot block all future ones.
func NewScheduler(
	interval time.Duration,
	jobTimeout time.Duration,
	events storage.EventStore,
	metrics storage.MetricStore,
	taxonomy *rollup.Taxonomy,
	opts JobOptions,
) *Scheduler {
	return &Scheduler{
		interval:   interval,
		jobTimeout: jobTimeout,
		events:     events,
		metrics:    metrics,
		taxonomy:   taxonomy,
		opts:       opts.normalized(),
	}
}

// Start runs an eager first rollup, then schedules periodic runs until the
// context is cancelled. Blocks until shutdown completes, so callers run it
// in a goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	slog.Info("[Scheduler] Starting rollup scheduler",
		"interval", s.interval,
		"job_timeout", s.jobTimeout,
		"retention", s.opts.Retention,
	)

	// Eager run so dashboards are warm right after startup.
	s.runOnce(ctx)

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{}),
	))
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule rollup: %w", err)
	}
	s.cron.Start()

	<-ctx.Done()
	slog.Info("[Scheduler] Stopping (context cancelled)")

	// Stop() waits for cron-started jobs; the WaitGroup also covers an
	// in-flight TriggerNow run.
	<-s.cron.Stop().Done()
	s.wg.Wait()

	slog.Info("[Scheduler] Stopped")
	return nil
}

// TriggerNow runs one rollup immediately. Returns ErrRunInProgress when a
// scheduled or triggered run is still in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (JobStats, error) {
	if !s.running.CompareAndSwap(false, true) {
		return JobStats{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	s.wg.Add(1)
	defer s.wg.Done()

	return s.run(ctx)
}

// runOnce is the scheduled entry point: it skips silently when a run is in
// flight and logs failures instead of propagating them, so one bad pass
// never kills the schedule.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("[Scheduler] Previous rollup still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	s.wg.Add(1)
	defer s.wg.Done()

	if _, err := s.run(ctx); err != nil {
		slog.Error("[Scheduler] Rollup run failed", "error", err)
	}
}

func (s *Scheduler) run(ctx context.Context) (JobStats, error) {
	runCtx := ctx
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	return RunDailyRollup(runCtx, s.events, s.metrics, s.taxonomy, s.opts)
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Info("[Scheduler] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("[Scheduler] "+msg, append(keysAndValues, "error", err)...)
}
