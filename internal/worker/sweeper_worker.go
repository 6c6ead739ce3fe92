package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/engine"
)

// SweeperWorker periodically force-submits sessions whose deadline passed.
// The per-session clocks normally handle expiry; the sweeper is the safety
// net for clocks lost to a crash or a paused goroutine.
type SweeperWorker struct {
	engine   *engine.Manager
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeperWorker creates a new SweeperWorker.
func NewSweeperWorker(eng *engine.Manager, interval time.Duration, log zerolog.Logger) *SweeperWorker {
	return &SweeperWorker{
		engine:   eng,
		interval: interval,
		log:      log.With().Str("component", "sweeper_worker").Logger(),
	}
}

// Start runs the sweep loop. Call in a goroutine.
func (w *SweeperWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			if n := w.engine.Sweep(ctx); n > 0 {
				w.log.Info().Int("submitted", n).Msg("Swept overdue sessions")
			}
		}
	}
}
