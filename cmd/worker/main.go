package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sactech-events/internal/app"
	workerPkg "sactech-events/internal/infra/worker"
	"sactech-events/internal/observability/logging"
	"sactech-events/internal/usecase/importer"
	"sactech-events/internal/usecase/settings"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(workerMetrics)
	loc, err := time.LoadLocation(workerConfig.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", workerConfig.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Duration("poll_interval", workerConfig.PollInterval),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	a, err := app.Build(ctx, app.Options{
		Logger:              logger,
		Metrics:             workerMetrics.ConfigMetrics,
		NotifyMaxConcurrent: workerConfig.NotifyMaxConcurrent,
		SeedFile:            workerConfig.SeedFile,
		Location:            loc,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Error("shutdown incomplete", slog.Any("error", err))
		}
	}()

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	scheduler := workerPkg.NewScheduler(workerPkg.SchedulerOptions{
		Job:      importJob(a.Importer),
		Cadence:  storedCadence(a.Settings),
		Config:   workerConfig,
		Metrics:  workerMetrics,
		Health:   healthServer,
		Logger:   logger,
		Location: loc,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.Start(gctx) })
	g.Go(func() error {
		return workerPkg.ServeMetrics(gctx, fmt.Sprintf(":%d", workerConfig.MetricsPort), logger)
	})
	g.Go(func() error { return scheduler.Run(gctx) })

	logger.Info("worker started")
	return g.Wait()
}

// importJob adapts an import run to the scheduler.
func importJob(imp *importer.Service) workerPkg.Job {
	return func(ctx context.Context) (workerPkg.RunStatus, error) {
		sum, err := imp.Run(ctx)
		if sum == nil {
			return workerPkg.RunStatus{}, err
		}
		return workerPkg.RunStatus{
			RunID:    sum.RunID,
			Created:  sum.Created,
			Updated:  sum.Updated,
			Filtered: sum.Filtered,
		}, err
	}
}

// storedCadence reads schedule_frequency from the option store.
func storedCadence(store *settings.Store) workerPkg.CadenceFunc {
	return func(ctx context.Context) (string, error) {
		return store.Get(ctx, settings.KeyScheduleFrequency, settings.DefaultScheduleFrequency)
	}
}
