package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	audit "medplant/pkg/platform/audit"
)

// Worker drains the audit queue into the sink.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

func NewWorker(opt asynq.RedisConnOpt, concurrency int, sink audit.Sink, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
	})

	mux := asynq.NewServeMux()
	NewHandler(sink, logger).Register(mux)

	return &Worker{server: server, mux: mux, logger: logger}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting audit queue worker")
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("worker error: %w", err)
	}
	<-ctx.Done()
	w.logger.Info("stopping audit queue worker")
	w.server.Shutdown()
	return nil
}
