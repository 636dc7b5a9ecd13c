package service

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"medplant/internal/ratelimit/metrics"
)

// Sweepable is a window store that keeps idle windows in process memory.
type Sweepable interface {
	Sweep(now time.Time) int
}

// Sweeper evicts idle in-memory windows on a cron schedule.
type Sweeper struct {
	store   Sweepable
	cron    *cron.Cron
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSweeper schedules store.Sweep. spec is a robfig/cron expression with
// optional seconds, e.g. "@every 1m".
func NewSweeper(store Sweepable, spec string, logger *slog.Logger, m *metrics.Metrics) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		store:   store,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	n := s.store.Sweep(s.now())
	if n == 0 {
		return
	}
	if s.metrics != nil {
		s.metrics.AddSwept(n)
	}
	s.logger.Debug("swept idle rate limit windows", "count", n)
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
