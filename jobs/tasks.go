package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotWarmup reloads the cached dashboard snapshots.
	TaskSnapshotWarmup = "snapshot:warmup"
)

// SnapshotWarmupPayload configures a warmup run.
type SnapshotWarmupPayload struct {
	// Invalidate bumps the cache version before reloading so every instance
	// drops what it holds.
	Invalidate bool `json:"invalidate"`
}

// NewSnapshotWarmupTask constructs an Asynq task.
func NewSnapshotWarmupTask(invalidate bool) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotWarmupPayload{Invalidate: invalidate})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode warmup payload: %w", err)
	}
	return asynq.NewTask(TaskSnapshotWarmup, data), nil
}
