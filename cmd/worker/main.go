package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/campuspass/campuspass-admin/internal/app"
	"github.com/campuspass/campuspass-admin/internal/observability"
	"github.com/campuspass/campuspass-admin/internal/platform/cache"
	"github.com/campuspass/campuspass-admin/internal/platform/db"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
	"github.com/campuspass/campuspass-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	display, err := timefmt.NewDisplay(cfg.DisplayTimezone)
	if err != nil {
		logger.Error("load display timezone", slog.Any("error", err))
		os.Exit(1)
	}

	snapshots := store.NewSnapshots(store.NewRepository(pool), store.NewCache(redisClient, cfg.SnapshotCache), store.Limits{
		Logs:   cfg.LogsLimit,
		Visits: cfg.VisitsLimit,
		Staff:  cfg.StaffLimit,
	}, logger)
	metrics := observability.NewMetrics()
	warmupJob := jobs.NewSnapshotWarmupJob(snapshots, logger, metrics.Jobs())

	warmupTask, err := jobs.NewSnapshotWarmupTask(false)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    display.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
