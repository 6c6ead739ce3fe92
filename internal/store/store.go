// Package store holds per-(candidate, round) session state that must survive
// page reloads and process restarts: answers, flags, sampled question order,
// start timestamp, started flag and the cached countdown value. All fields are
// cleared together, and only after the attempt result has been acknowledged.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hirestack/interview-backend/internal/model"
)

// Record is the rehydrated session state for one candidate and round.
type Record struct {
	Started   bool
	StartedAt time.Time
	// Remaining is the last persisted countdown value. It is a UI-smoothness
	// cache only; after an absence the engine recomputes from StartedAt.
	Remaining int
	Answers   map[uuid.UUID]model.AnswerValue
	Flagged   map[uuid.UUID]bool
	Order     []uuid.UUID
}

// SessionStore is the persistence boundary of the session engine. Write
// methods are called synchronously on every mutation; failures are surfaced
// so callers can log them, but in-memory state stays authoritative for the
// rest of the session.
type SessionStore interface {
	// Load returns the persisted record, or nil when nothing is stored.
	Load(ctx context.Context, candidateID int, roundID uuid.UUID) (*Record, error)
	SaveOrder(ctx context.Context, candidateID int, roundID uuid.UUID, order []uuid.UUID) error
	MarkStarted(ctx context.Context, candidateID int, roundID uuid.UUID, startedAt time.Time, remaining int) error
	SaveAnswer(ctx context.Context, candidateID int, roundID uuid.UUID, questionID uuid.UUID, ans model.AnswerValue) error
	SaveFlag(ctx context.Context, candidateID int, roundID uuid.UUID, questionID uuid.UUID, flagged bool) error
	SaveRemaining(ctx context.Context, candidateID int, roundID uuid.UUID, seconds int) error
	Clear(ctx context.Context, candidateID int, roundID uuid.UUID) error
}
