package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"medplant/pkg/platform/circuit"
	"medplant/pkg/requestcontext"
)

//go:generate mockgen -source=recorder.go -destination=mocks/mocks.go -package=mocks Sink,Queue

// Sink persists entries. Implementations must be append-only.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Queue durably hands an entry off for a later Append.
type Queue interface {
	Enqueue(ctx context.Context, entry Entry) error
}

// ErrRecorderClosed is reported to the fallback log for async entries that
// arrive after Close.
var ErrRecorderClosed = errors.New("audit recorder closed")

// Recorder writes audit entries without ever failing the caller. Writes go to
// the sink under a timeout; when the sink fails or its breaker is open the
// entry is queued, and when that fails too it is logged to the fallback
// logger at error level.
type Recorder struct {
	sink     Sink
	queue    Queue
	logger   *slog.Logger
	fallback *slog.Logger
	breaker  *circuit.Breaker
	timeout  time.Duration
	metrics  *Metrics

	mu      sync.RWMutex
	closed  bool
	asyncCh chan Entry
	wg      sync.WaitGroup
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithFallbackLogger sets where entries go when neither the sink nor the
// queue accepts them. Defaults to the main logger.
func WithFallbackLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.fallback = logger
	}
}

func WithQueue(q Queue) Option {
	return func(r *Recorder) {
		r.queue = q
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Recorder) {
		r.breaker = b
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithAsyncBuffer enables buffered RecordAsync. Without it RecordAsync
// writes synchronously.
func WithAsyncBuffer(size int) Option {
	return func(r *Recorder) {
		if size > 0 {
			r.asyncCh = make(chan Entry, size)
		}
	}
}

func NewRecorder(sink Sink, opts ...Option) *Recorder {
	r := &Recorder{
		sink:    sink,
		logger:  slog.Default(),
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = r.logger
	}
	if r.breaker == nil {
		r.breaker = circuit.New("audit_sink")
	}
	if r.asyncCh != nil {
		r.wg.Add(1)
		go r.drain()
	}
	return r
}

// Record enriches and writes one entry. It returns once the entry is stored,
// queued, or logged to the fallback.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	r.write(ctx, r.enrich(ctx, entry))
}

// RecordAsync buffers an entry for background writing. Used for views, where
// the response must not wait on audit.
func (r *Recorder) RecordAsync(ctx context.Context, entry Entry) {
	entry = r.enrich(ctx, entry)
	if r.asyncCh == nil {
		r.write(ctx, entry)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logFallback(entry, ErrRecorderClosed)
		return
	}
	select {
	case r.asyncCh <- entry:
	default:
		r.logFallback(entry, errors.New("audit buffer full"))
	}
}

// Close stops accepting async entries and waits for the buffer to drain.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.asyncCh != nil {
		close(r.asyncCh)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for entry := range r.asyncCh {
		r.write(context.Background(), entry)
	}
}

func (r *Recorder) enrich(ctx context.Context, e Entry) Entry {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if p, ok := requestcontext.PrincipalFrom(ctx); ok {
		if e.Actor == "" {
			e.Actor = p.DisplayName()
		}
		if e.TenantID == nil {
			e.TenantID = p.TenantID
		}
	}
	if e.Actor == "" {
		e.Actor = "Unknown"
	}
	return e
}

func (r *Recorder) write(ctx context.Context, e Entry) {
	// The entry must be written even if the request was cancelled.
	base := context.WithoutCancel(ctx)

	r.logger.DebugContext(ctx, e.Action,
		"entity_type", e.EntityType,
		"record_id", e.RecordID,
		"actor", e.Actor,
		"log_type", "audit",
	)

	var sinkErr error
	if r.breaker.Allow() {
		sinkErr = r.appendWithTimeout(base, e)
		if sinkErr == nil {
			r.breaker.RecordSuccess()
			r.observe(pathSink)
			return
		}
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.Warn("audit sink circuit opened", "error", sinkErr)
		}
	} else {
		sinkErr = errors.New("audit sink circuit open")
	}

	if r.queue != nil {
		qctx, cancel := context.WithTimeout(base, r.timeout)
		err := r.queue.Enqueue(qctx, e)
		cancel()
		if err == nil {
			r.observe(pathQueue)
			return
		}
		sinkErr = errors.Join(sinkErr, err)
	}

	r.logFallback(e, sinkErr)
}

func (r *Recorder) appendWithTimeout(ctx context.Context, e Entry) error {
	if r.sink == nil {
		return errors.New("no audit sink configured")
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.sink.Append(ctx, e)
}

func (r *Recorder) logFallback(e Entry, cause error) {
	r.observe(pathFallback)
	r.fallback.Error("audit entry not persisted",
		"error", cause,
		"log_type", "audit",
		"entry_id", e.ID.String(),
		"entity_type", e.EntityType,
		"action", e.Action,
		"record_id", e.RecordID,
		"actor", e.Actor,
		"tenant_id", e.TenantID,
		"request_id", e.RequestID,
		"timestamp", e.Timestamp,
		"description", e.Description,
		"before", string(e.Before),
		"after", string(e.After),
		"changes", e.Changes,
	)
}

func (r *Recorder) observe(path string) {
	if r.metrics != nil {
		r.metrics.RecordWrite(path)
	}
}
