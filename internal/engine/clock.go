package engine

import (
	"context"
	"time"

	"github.com/hirestack/interview-backend/internal/model"
)

// startClockLocked launches the per-session countdown goroutine. Caller
// holds s.mu.
func (m *Manager) startClockLocked(s *session) {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopClock = cancel
	go m.runClock(ctx, s)
}

// runClock ticks once per second until the session leaves IN_PROGRESS or
// the context is cancelled.
func (m *Manager) runClock(ctx context.Context, s *session) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if m.clockTick(s) {
			return
		}
	}
}

// clockTick advances one countdown step: recompute remaining from the wall
// clock, persist the new value, notify subscribers, and force submission
// with the clock trigger at zero. Reports whether the clock should stop.
func (m *Manager) clockTick(s *session) bool {
	s.mu.Lock()
	if s.status != model.SessionStatusInProgress {
		s.mu.Unlock()
		return true
	}
	remaining := m.remainingLocked(s)
	s.remaining = remaining
	candidateID, roundID, status := s.candidateID, s.round.ID, s.status
	s.mu.Unlock()

	if remaining > 0 {
		storeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := m.store.SaveRemaining(storeCtx, candidateID, roundID, remaining); err != nil {
			m.log.Warn().Err(err).Int("candidate_id", candidateID).Msg("Failed to persist countdown")
		}
		cancel()
	}

	m.notify(candidateID, roundID, remaining, status)

	if remaining <= 0 {
		submitCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, err := m.Submit(submitCtx, candidateID, roundID, model.SubmitTriggerClock)
		cancel()
		if err != nil {
			m.log.Error().
				Err(err).
				Int("candidate_id", candidateID).
				Str("round_id", roundID.String()).
				Msg("Clock-triggered submit failed")
		}
		return true
	}
	return false
}
