//go:build integration

package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	redisstore "medplant/internal/ratelimit/store/redis"
	"medplant/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	now   time.Time
	store *redisstore.Store
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) TearDownSuite() {
	s.redis.Terminate(context.Background())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store, err := redisstore.New(s.redis.Client, redisstore.WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisStoreSuite) TestSlidingWindow() {
	ctx := context.Background()
	key := "ratelimit:alice:DEPARTMENT_CREATE"

	for i := range 5 {
		res, err := s.store.Allow(ctx, key, 5, 5*time.Minute)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(4-i, res.Remaining)
	}

	s.now = s.now.Add(time.Minute)
	res, err := s.store.Allow(ctx, key, 5, 5*time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(240, res.RetryAfter)

	s.now = s.now.Add(4*time.Minute + time.Millisecond)
	res, err = s.store.Allow(ctx, key, 5, 5*time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisStoreSuite) TestConcurrentAllowNeverExceedsLimit() {
	ctx := context.Background()
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(ctx, "ratelimit:race:x", 10, time.Minute)
			s.NoError(err)
			if res != nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(10), allowed.Load())
}

func (s *RedisStoreSuite) TestReset() {
	ctx := context.Background()
	key := "ratelimit:bob:EMPLOYEE_DELETE"
	for range 3 {
		_, err := s.store.Allow(ctx, key, 3, time.Minute)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(ctx, key))

	res, err := s.store.Allow(ctx, key, 3, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(2, res.Remaining)
}
