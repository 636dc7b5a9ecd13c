// Package fallback keeps rate limiting alive through a shared store outage.
//
// Windows live in the primary store (Redis) while it is healthy. When a call
// fails, or while the circuit is open, the request is counted in a local
// in-memory store instead, so limits keep applying per process rather than
// failing open. The circuit closes again after a successful probe.
package fallback

import (
	"context"
	"log/slog"
	"time"

	"medplant/internal/ratelimit/models"
	"medplant/internal/ratelimit/ports"
	"medplant/internal/ratelimit/store/bucket"
	"medplant/pkg/platform/circuit"
)

type Store struct {
	primary   ports.WindowStore
	secondary *bucket.InMemoryBucketStore
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) {
		s.breaker = b
	}
}

func New(primary ports.WindowStore, secondary *bucket.InMemoryBucketStore, opts ...Option) *Store {
	s := &Store{
		primary:   primary,
		secondary: secondary,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = circuit.New("ratelimit_store")
	}
	return s
}

func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if s.breaker.Allow() {
		res, err := s.primary.Allow(ctx, key, limit, window)
		if err == nil {
			if _, change := s.breaker.RecordSuccess(); change.Closed {
				s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
			}
			return res, nil
		}
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory windows",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
	}
	return s.secondary.Allow(ctx, key, limit, window)
}

// Reset clears the key in both stores. The primary's error wins.
func (s *Store) Reset(ctx context.Context, key string) error {
	_ = s.secondary.Reset(ctx, key)
	return s.primary.Reset(ctx, key)
}

// Sweep evicts idle fallback windows.
func (s *Store) Sweep(now time.Time) int {
	return s.secondary.Sweep(now)
}

// Degraded reports whether requests are currently counted locally.
func (s *Store) Degraded() bool {
	return s.breaker.IsOpen()
}
