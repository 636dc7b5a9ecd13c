// Package service implements the per-principal, per-action rate limiter.
package service

import (
	"context"
	"errors"
	"log/slog"

	"medplant/internal/ratelimit/metrics"
	"medplant/internal/ratelimit/models"
	"medplant/internal/ratelimit/ports"
)

type WindowStore = ports.WindowStore

// Limiter answers "may this principal perform this action now?".
type Limiter struct {
	store   WindowStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Limiter) {
		l.metrics = m
	}
}

func New(store WindowStore, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, errors.New("window store is required")
	}
	l := &Limiter{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow records the attempt and reports whether it fits in the rule's window.
// The result is never nil. A zero rule always allows. Store failures fail
// open: the request proceeds, the error is logged, and the error is returned
// for the caller's records.
func (l *Limiter) Allow(ctx context.Context, principalKey, actionKey string, rule models.Rule) (*models.Result, error) {
	if rule.IsZero() {
		return &models.Result{Allowed: true}, nil
	}

	key := models.NewKey(principalKey, actionKey)
	result, err := l.store.Allow(ctx, key.String(), rule.Limit, rule.Window)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to check rate limit",
			"error", err,
			"principal", principalKey,
			"action", actionKey,
		)
		if l.metrics != nil {
			l.metrics.IncrementStoreFailures()
		}
		return &models.Result{Allowed: true, Limit: rule.Limit}, err
	}

	if l.metrics != nil {
		l.metrics.RecordDecision(actionKey, result.Allowed)
	}
	if !result.Allowed {
		l.logger.InfoContext(ctx, "rate_limit_exceeded",
			"principal", principalKey,
			"action", actionKey,
			"limit", rule.Limit,
			"window_seconds", int(rule.Window.Seconds()),
			"retry_after", result.RetryAfter,
			"log_type", "audit",
		)
	}
	return result, nil
}
