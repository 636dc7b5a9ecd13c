package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	audit "medplant/pkg/platform/audit"
)

// Client implements audit.Queue on asynq.
type Client struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewClient(opt asynq.RedisConnOpt, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: asynq.NewClient(opt),
		logger: logger.With("component", "audit_queue"),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Enqueue stores the entry durably. A task that is already queued under the
// same entry ID counts as success.
func (c *Client) Enqueue(ctx context.Context, entry audit.Entry) error {
	task, err := NewAppendTask(entry)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("audit entry queued",
		"task_id", info.ID,
		"action", entry.Action,
		"queue", info.Queue,
	)
	return nil
}
