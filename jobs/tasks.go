package jobs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/facturacao/facturacao/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTotalsIntegrity is the task type for the invoice totals drift scan.
	TaskTotalsIntegrity = "invoice:totals_integrity"
)

// TotalsIntegrityPayload identifies one scan run.
type TotalsIntegrityPayload struct {
	RunID string `json:"run_id"`
}

// NewTotalsIntegrityTask constructs an Asynq task with a fresh run id.
func NewTotalsIntegrityTask() (*asynq.Task, error) {
	data, err := json.Marshal(TotalsIntegrityPayload{RunID: uuid.NewString()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTotalsIntegrity, data), nil
}

// NewTotalsIntegrityHandler binds the scanner to the task type. Each run is
// tracked in the job metrics; metrics may be nil.
func NewTotalsIntegrityHandler(scanner *TotalsIntegrityScanner, metrics *observability.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TotalsIntegrityPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return metrics.Track("totals_integrity").End(scanner.Run(ctx, payload.RunID))
	}
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueTotalsIntegrity enqueues a totals integrity scan.
func (c *Client) EnqueueTotalsIntegrity(ctx context.Context) (*asynq.TaskInfo, error) {
	task, err := NewTotalsIntegrityTask()
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
