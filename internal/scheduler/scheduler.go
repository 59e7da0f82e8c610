// Package scheduler drives periodic background regeneration.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often the regeneration sweep runs. Regeneration
// also happens lazily on player access, so a missed tick is harmless.
const DefaultInterval = time.Minute

// Regenerator applies elapsed-time regeneration across all players.
type Regenerator interface {
	RegenerateAll()
}

// Scheduler periodically invokes a Regenerator until its context ends.
type Scheduler struct {
	regen    Regenerator
	interval time.Duration
	logger   *slog.Logger
}

// New creates a scheduler. A non-positive interval falls back to the default.
func New(regen Regenerator, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{regen: regen, interval: interval, logger: logger}
}

// Start runs the sweep loop in a background goroutine until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("regeneration scheduler started", "interval", s.interval)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("regeneration scheduler stopped")
				return
			case <-ticker.C:
				s.regen.RegenerateAll()
			}
		}
	}()
}
