package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-exotics/internal/database"
	"github.com/yourusername/clever-exotics/internal/exotic"
	"github.com/yourusername/clever-exotics/internal/metrics"
	"github.com/yourusername/clever-exotics/internal/provider"
	"github.com/yourusername/clever-exotics/internal/publisher"
	"github.com/yourusername/clever-exotics/internal/repository"
	"github.com/yourusername/clever-exotics/internal/scheduler"
	"github.com/yourusername/clever-exotics/internal/server"
	"github.com/yourusername/clever-exotics/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the optimizer HTTP API",
	Long:  `Starts the REST API, the live signal stream and, when storage is enabled, the retention job.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Exotic optimizer starting")

	metrics.InitRegistry()

	history := exotic.NewSignalHistory(cfg.Optimization.SignalHistorySize)
	optimizer, err := newOptimizer(
		exotic.WithHistory(history),
		exotic.WithObserver(metrics.NewCollector(history)),
	)
	if err != nil {
		return err
	}

	deps := service.Dependencies{Logger: appLog}

	var (
		db    *database.DB
		repos *repository.Repositories
	)
	if cfg.Database.Enabled {
		db, err = database.Initialize(ctx, &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
		deps.Runs = repos.Run
		appLog.Info("Database connection established")
	}

	if cfg.Provider.Enabled {
		upstream, err := provider.NewHTTPProvider(&cfg.Provider, appLog)
		if err != nil {
			return fmt.Errorf("failed to create probability provider: %w", err)
		}
		defer upstream.Close()

		cache := provider.NewProbabilityCache(cfg.Cache.TTL(), cfg.Cache.MaxSize)
		deps.Provider = provider.NewCachedProvider(upstream, cache, upstream.ModelVersion(), appLog)
		appLog.WithField("provider_url", cfg.Provider.URL).Info("Probability provider initialized")
	}

	pub, err := publisher.New(&cfg.Publisher, appLog)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			appLog.WithError(err).Error("Failed to close publisher")
		}
	}()
	deps.Publisher = pub

	hub := server.NewHub(appLog)
	deps.Broadcaster = hub

	svc := service.NewOptimizationService(optimizer, deps)

	opts := server.Options{
		Service: svc,
		Hub:     hub,
		Logger:  appLog,
		Version: Version,
		Commit:  GitCommit,
	}
	if db != nil {
		opts.DB = db
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}
	srv := server.New(cfg.API, opts)

	if repos != nil && cfg.Retention.Enabled {
		sched := scheduler.NewScheduler(repos.Signal, appLog)
		if err := sched.ScheduleRetention(cfg.Retention.Schedule, cfg.Retention.MaxAge()); err != nil {
			return fmt.Errorf("failed to schedule retention: %w", err)
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				appLog.WithError(err).Error("Failed to stop scheduler")
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return srv.Start(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	appLog.Info("Exotic optimizer stopped")
	return nil
}
