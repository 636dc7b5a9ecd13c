package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"medplant/internal/ratelimit/models"
)

// allowScript trims the sorted set to the trailing window, then records the
// request only if the window still has room. Runs atomically on the server.
var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local window_ms = tonumber(ARGV[3])
	local limit = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		return {1, limit - count - 1, tonumber(oldest[2]) + window_ms}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = oldest[2] and (tonumber(oldest[2]) + window_ms) or (now + window_ms)
	return {0, 0, reset_at}
`)

// Store implements ports.WindowStore on Redis sorted sets so that replicas
// share one window per key.
type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(client redis.Cmdable, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &Store{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	if key == "" {
		return nil, errors.New("key is required")
	}
	now := s.now()
	nowMs := now.UnixMilli()
	windowMs := window.Milliseconds()

	raw, err := allowScript.Run(ctx, s.client, []string{key},
		nowMs,
		nowMs-windowMs,
		windowMs,
		limit,
		fmt.Sprintf("%d:%s", nowMs, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply length %d", len(raw))
	}

	resetAt := time.UnixMilli(raw[2])
	result := &models.Result{
		Allowed:   raw[0] == 1,
		Limit:     limit,
		Remaining: int(raw[1]),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = max(1, int((resetAt.Sub(now)+time.Second-1)/time.Second))
	}
	return result, nil
}

func (s *Store) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
