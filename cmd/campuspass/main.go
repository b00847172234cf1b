package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/campuspass/campuspass-admin/internal/app"
	"github.com/campuspass/campuspass-admin/internal/campusapi"
	"github.com/campuspass/campuspass-admin/internal/console"
	"github.com/campuspass/campuspass-admin/internal/observability"
	"github.com/campuspass/campuspass-admin/internal/platform/cache"
	"github.com/campuspass/campuspass-admin/internal/platform/db"
	"github.com/campuspass/campuspass-admin/internal/shared"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
	"github.com/campuspass/campuspass-admin/internal/view"
	"github.com/campuspass/campuspass-admin/jobs"
	"github.com/campuspass/campuspass-admin/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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
		logger.Error("load display timezone", slog.String("zone", cfg.DisplayTimezone), slog.Any("error", err))
		os.Exit(1)
	}

	snapshotCache := store.NewCache(redisClient, cfg.SnapshotCache)
	if err := snapshotCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("snapshot invalidation listener", slog.Any("error", err))
	}
	snapshots := store.NewSnapshots(store.NewRepository(dbpool), snapshotCache, store.Limits{
		Logs:   cfg.LogsLimit,
		Visits: cfg.VisitsLimit,
		Staff:  cfg.StaffLimit,
	}, logger)

	campus := campusapi.NewClient(cfg.CampusAPIURL,
		campusapi.WithHTTPClient(&http.Client{Timeout: cfg.CampusAPITimeout}),
		campusapi.WithSession(cfg.CampusAPISession),
		campusapi.WithCSRFToken(cfg.CampusCSRFToken),
		campusapi.WithVisitsExportPath(cfg.CampusExportPath),
	)
	if !campus.Configured() {
		logger.Info("campus api not configured, notifications stay offline")
	}

	reportClient := report.NewClient(cfg.GotenbergURL)
	metrics := observability.NewMetrics()

	registry := console.NewRegistry(console.Deps{
		Snapshots:        snapshots,
		API:              campus,
		PDF:              report.NewRenderer(reportClient),
		Display:          display,
		Logger:           logger,
		Observer:         metrics,
		NotifyInterval:   cfg.NotifyInterval,
		ActivityInterval: cfg.ActivityInterval,
		ClearSendsIDs:    cfg.ClearSendsIDs,
	}, cfg.WorkspaceIdleTTL, metrics)
	go registry.Run(ctx)

	templates, err := view.NewEngine(display)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, "campuspass_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	consoleHandler := console.NewHandler(logger, registry, templates, csrfManager,
		console.WithExportLimit(cfg.ExportRateLimit))
	reportHandler := report.NewHandler(reportClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		ConsoleHandler: consoleHandler,
		ReportHandler:  reportHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("zone", display.Location().String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	registry.Close()
}
