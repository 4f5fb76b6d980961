package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/listly-app/listly-metrics/internal/aggregation"
	"github.com/listly-app/listly-metrics/internal/config"
	"github.com/listly-app/listly-metrics/internal/core/rollup"
	"github.com/listly-app/listly-metrics/internal/core/storage/postgres"
	"github.com/listly-app/listly-metrics/internal/ingestion"
	"github.com/listly-app/listly-metrics/internal/migrations"
	"github.com/listly-app/listly-metrics/internal/reporting"
	"github.com/listly-app/listly-metrics/internal/server"
)

func main() {
	configPath := flag.String("config", "listly-metrics.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	interval, err := cfg.Rollup.ParseInterval()
	if err != nil {
		slog.Error("Invalid rollup interval", "error", err)
		os.Exit(1)
	}
	jobTimeout, err := cfg.Rollup.ParseJobTimeout()
	if err != nil {
		slog.Error("Invalid rollup job timeout", "error", err)
		os.Exit(1)
	}
	retention, err := cfg.Rollup.Retention()
	if err != nil {
		slog.Error("Invalid rollup retention", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage (PostgreSQL)
	eventStore, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer eventStore.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(eventStore.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	metricStore := postgres.NewMetricAdapter(eventStore.DB())

	// 3. Load event-type taxonomy (built-in defaults unless a file is given)
	taxonomy, err := rollup.LoadTaxonomy(cfg.Rollup.TaxonomyPath)
	if err != nil {
		slog.Error("Failed to load event taxonomy", "error", err)
		os.Exit(1)
	}

	// 4. Initialize the rollup scheduler
	scheduler := aggregation.NewScheduler(
		interval,
		jobTimeout,
		eventStore,
		metricStore,
		taxonomy,
		aggregation.JobOptions{Retention: retention},
	)

	slog.Info("Rollup scheduler initialized",
		"interval", interval,
		"enabled", cfg.Rollup.Enabled,
		"retention", retention,
		"job_timeout", jobTimeout,
	)

	// 5. Initialize Ingestion and Reporting
	ingestionSvc := ingestion.NewService(eventStore, metricStore, taxonomy)
	reportingSvc := reporting.NewService(metricStore)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), eventStore, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)

	var trigger reporting.RollupTrigger
	if cfg.Rollup.Enabled {
		trigger = scheduler
	}
	reportingSvc.RegisterRoutes(srv.Engine, trigger)

	// 7. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Rollup.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Rollup scheduler disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
