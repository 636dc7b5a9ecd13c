package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	audit "medplant/pkg/platform/audit"
)

// Handler replays queued entries into the sink. Returning an error makes
// asynq retry the task.
type Handler struct {
	sink   audit.Sink
	logger *slog.Logger
}

func NewHandler(sink audit.Sink, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{sink: sink, logger: logger}
}

func (h *Handler) HandleAppend(ctx context.Context, t *asynq.Task) error {
	var entry audit.Entry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		h.logger.Error("dropping malformed audit task", "error", err)
		return fmt.Errorf("unmarshal audit entry: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.sink.Append(ctx, entry); err != nil {
		h.logger.Warn("audit replay failed", "entry_id", entry.ID.String(), "error", err)
		return err
	}
	return nil
}

// Register adds the handler to mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAuditAppend, h.HandleAppend)
}
