package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuspass/campuspass-admin/cmd/campuspassctl/cli"
	"github.com/campuspass/campuspass-admin/internal/app"
	"github.com/campuspass/campuspass-admin/internal/platform/cache"
	"github.com/campuspass/campuspass-admin/internal/platform/db"
	"github.com/campuspass/campuspass-admin/internal/store"
	"github.com/campuspass/campuspass-admin/internal/tableview"
	"github.com/campuspass/campuspass-admin/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping cli")
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	runner := cli.Runner{
		Logger:        logger,
		OpenSnapshots: openSnapshots(logger),
		OpenJobs:      func(addr string) cli.Jobs { return cli.NewJobsCLI(addr) },
		OpenPDF: func(url string) tableview.PDFRenderer {
			return report.NewRenderer(report.NewClient(url))
		},
	}
	os.Exit(runner.Run(ctx, os.Args[1:]))
}

func openSnapshots(logger *slog.Logger) func(ctx context.Context, dsn, redisAddr string) (cli.Snapshots, func(), error) {
	return func(ctx context.Context, dsn, redisAddr string) (cli.Snapshots, func(), error) {
		if dsn == "" {
			return nil, nil, fmt.Errorf("--dsn or PG_DSN is required")
		}
		pool, err := db.New(ctx, dsn, db.Options{MaxConns: 2})
		if err != nil {
			return nil, nil, err
		}
		// The cache is optional for one-off exports.
		var snapshotCache *store.Cache
		redisClient, err := cache.New(ctx, redisAddr)
		if err != nil {
			logger.Warn("snapshot cache unavailable, reading postgres directly", slog.Any("error", err))
		} else {
			snapshotCache = store.NewCache(redisClient, 5*time.Minute)
		}
		closeFn := func() {
			pool.Close()
			if redisClient != nil {
				_ = redisClient.Close()
			}
		}
		return store.NewSnapshots(store.NewRepository(pool), snapshotCache, store.Limits{}, logger), closeFn, nil
	}
}
