package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campuspass/campuspass-admin/internal/jobs"
	"github.com/campuspass/campuspass-admin/internal/store"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer is the snapshot service slice the warmup job drives.
type Warmer interface {
	Warm(ctx context.Context) (map[store.Kind]int, error)
	Invalidate(ctx context.Context) error
}

// SnapshotWarmupJob keeps the cached logs, visits and staff snapshots fresh.
type SnapshotWarmupJob struct {
	Snapshots Warmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
	clock     func() time.Time
}

// NewSnapshotWarmupJob wires dependencies for the warmup handler.
func NewSnapshotWarmupJob(snapshots Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{
		Snapshots: snapshots,
		Logger:    logger,
		Metrics:   metrics,
		Timeout:   time.Minute,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes warmup tasks.
func (j *SnapshotWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Snapshots == nil {
		return errors.New("snapshot warmup: handler not configured")
	}
	var payload SnapshotWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	return j.Run(ctx, payload)
}

// Run performs one warmup outside the queue.
func (j *SnapshotWarmupJob) Run(ctx context.Context, payload SnapshotWarmupPayload) (resultErr error) {
	tracker := j.metrics().Track(TaskSnapshotWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Bool("invalidate", payload.Invalidate))
	start := j.now()
	logger.Info("starting snapshot warmup")

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if payload.Invalidate {
		if err := j.Snapshots.Invalidate(ctx); err != nil {
			logger.Error("invalidate snapshots", slog.Any("error", err))
			return err
		}
	}
	counts, err := j.Snapshots.Warm(ctx)
	if err != nil {
		logger.Error("warm snapshots", slog.Any("error", err))
		return err
	}
	for kind, n := range counts {
		j.metrics().SetSnapshotSize(string(kind), n)
	}
	logger.Info("completed snapshot warmup",
		slog.Int("logs", counts[store.KindLogs]),
		slog.Int("visits", counts[store.KindVisits]),
		slog.Int("staff", counts[store.KindStaff]),
		slog.Duration("duration", j.now().Sub(start)))
	return nil
}

func (j *SnapshotWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSnapshotWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSnapshotWarmup))
}

func (j *SnapshotWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SnapshotWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
