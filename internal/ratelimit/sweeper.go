package ratelimit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically evicts idle buckets from a Limiter.
type Sweeper struct {
	cron *cron.Cron
}

// NewSweeper schedules l.Evict(idle) on the cron spec (e.g. "@every 5m").
func NewSweeper(l *Limiter, spec string, idle time.Duration) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := l.Evict(idle); n > 0 {
			slog.Debug("Evicted idle rate limiters", "count", n, "remaining", l.Len())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{cron: c}, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() { <-s.cron.Stop().Done() }
