package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirestack/interview-backend/internal/model"
)

type sessionKey struct {
	candidateID int
	roundID     uuid.UUID
}

// MemoryStore is an in-process SessionStore with the same semantics as
// RedisStore and no durability. Used by unit tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[sessionKey]*Record
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[sessionKey]*Record)}
}

func (s *MemoryStore) get(candidateID int, roundID uuid.UUID) *Record {
	k := sessionKey{candidateID, roundID}
	rec, ok := s.records[k]
	if !ok {
		rec = &Record{
			Answers: make(map[uuid.UUID]model.AnswerValue),
			Flagged: make(map[uuid.UUID]bool),
		}
		s.records[k] = rec
	}
	return rec
}

func (s *MemoryStore) Load(_ context.Context, candidateID int, roundID uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionKey{candidateID, roundID}]
	if !ok {
		return nil, nil
	}

	// Copy so callers cannot mutate stored state behind the lock.
	cp := &Record{
		Started:   rec.Started,
		StartedAt: rec.StartedAt,
		Remaining: rec.Remaining,
		Answers:   make(map[uuid.UUID]model.AnswerValue, len(rec.Answers)),
		Flagged:   make(map[uuid.UUID]bool, len(rec.Flagged)),
		Order:     append([]uuid.UUID(nil), rec.Order...),
	}
	for k, v := range rec.Answers {
		cp.Answers[k] = v
	}
	for k, v := range rec.Flagged {
		cp.Flagged[k] = v
	}
	return cp, nil
}

func (s *MemoryStore) SaveOrder(_ context.Context, candidateID int, roundID uuid.UUID, order []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(candidateID, roundID).Order = append([]uuid.UUID(nil), order...)
	return nil
}

func (s *MemoryStore) MarkStarted(_ context.Context, candidateID int, roundID uuid.UUID, startedAt time.Time, remaining int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(candidateID, roundID)
	rec.Started = true
	rec.StartedAt = startedAt
	rec.Remaining = remaining
	return nil
}

func (s *MemoryStore) SaveAnswer(_ context.Context, candidateID int, roundID uuid.UUID, questionID uuid.UUID, ans model.AnswerValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(candidateID, roundID).Answers[questionID] = ans
	return nil
}

func (s *MemoryStore) SaveFlag(_ context.Context, candidateID int, roundID uuid.UUID, questionID uuid.UUID, flagged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.get(candidateID, roundID)
	if flagged {
		rec.Flagged[questionID] = true
	} else {
		delete(rec.Flagged, questionID)
	}
	return nil
}

func (s *MemoryStore) SaveRemaining(_ context.Context, candidateID int, roundID uuid.UUID, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(candidateID, roundID).Remaining = seconds
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, candidateID int, roundID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionKey{candidateID, roundID})
	return nil
}
