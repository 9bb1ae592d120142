package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeRecord is the asynq task type carrying one audit event.
const TaskTypeRecord = "audit:record"

// QueueRecorder enqueues events onto the background worker instead of
// writing them inline, so a slow audit store never delays a request.
type QueueRecorder struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewQueueRecorder constructs a QueueRecorder.
func NewQueueRecorder(client *asynq.Client, logger *slog.Logger) *QueueRecorder {
	return &QueueRecorder{client: client, logger: logger}
}

// Record enqueues the event. Enqueue failures are logged, not propagated:
// audit is best-effort and must not fail the operation it describes.
func (r *QueueRecorder) Record(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskTypeRecord, payload, asynq.MaxRetry(5))
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		if r.logger != nil {
			r.logger.Warn("audit enqueue", slog.Any("error", err), slog.String("action", event.Action))
		}
		return nil
	}
	return nil
}

var _ Recorder = (*QueueRecorder)(nil)
