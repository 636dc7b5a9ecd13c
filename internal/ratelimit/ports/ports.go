// Package ports defines the storage interface the rate limiter consumes.
package ports

import (
	"context"
	"time"

	"medplant/internal/ratelimit/models"
)

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks WindowStore

// WindowStore manages sliding window counters.
type WindowStore interface {
	// Allow records one request under key if fewer than limit requests were
	// recorded in the trailing window. Rejected requests are not recorded.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)

	// Reset clears the window for a key.
	Reset(ctx context.Context, key string) error
}
