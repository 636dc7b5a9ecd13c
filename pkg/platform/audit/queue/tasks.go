// Package queue hands audit entries to Redis through asynq when the primary
// audit sink is unavailable, and replays them into the sink from a worker.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	audit "medplant/pkg/platform/audit"
)

const (
	TypeAuditAppend = "audit:append"
	QueueName       = "audit"
)

// NewAppendTask wraps an entry in an asynq task. Retries are generous since
// the entry has nowhere else to go.
func NewAppendTask(entry audit.Entry) (*asynq.Task, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	return asynq.NewTask(
		TypeAuditAppend,
		data,
		asynq.MaxRetry(25),
		asynq.Timeout(30*time.Second),
		asynq.Queue(QueueName),
		asynq.TaskID(entry.ID.String()),
	), nil
}
