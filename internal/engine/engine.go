// Package engine owns live candidate sessions: one state machine per
// (candidate, round) pair, a persistent store behind it and a countdown
// clock beside it. All transitions go through the Manager so the submission
// latch and the resume path see one consistent view.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/sampler"
	"github.com/hirestack/interview-backend/internal/scorer"
	"github.com/hirestack/interview-backend/internal/store"
)

// Domain Errors
var (
	ErrCooldownActive   = errors.New("round is frozen after a failed attempt")
	ErrSequenceLocked   = errors.New("previous rounds in the sequence are not cleared")
	ErrSessionNotFound  = errors.New("no open session for this round")
	ErrNotStarted       = errors.New("session has not been started")
	ErrAlreadyCompleted = errors.New("session is already completed")
	ErrSubmitInProgress = errors.New("submission is already in progress")
	ErrUnknownQuestion  = errors.New("question is not part of this session")
	ErrResultNotSaved   = errors.New("result could not be persisted")
	ErrResultSaved      = errors.New("result is already persisted")
	ErrSessionCorrupt   = errors.New("stored session state is inconsistent")
)

// RoundSource resolves round metadata.
type RoundSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error)
}

// QuestionSource provides a round's full question pool.
type QuestionSource interface {
	Questions(ctx context.Context, roundID uuid.UUID) ([]model.Question, error)
}

// ResultSink persists a finalized attempt.
type ResultSink interface {
	Save(ctx context.Context, round *model.Round, res *model.Result) error
}

// EligibilityChecker is the cooldown gate.
type EligibilityChecker interface {
	CheckEligibility(ctx context.Context, candidateID int, roundID uuid.UUID) model.Eligibility
}

// SequenceChecker enforces domain round ordering.
type SequenceChecker interface {
	CanAttempt(ctx context.Context, candidateID int, round *model.Round) (bool, error)
}

// TickFunc receives countdown updates for live sessions. Called from the
// clock goroutine; implementations must not block.
type TickFunc func(candidateID int, roundID uuid.UUID, remaining int, status model.SessionStatus)

// session is the in-memory state of one candidate's attempt at one round.
type session struct {
	mu sync.Mutex

	candidateID int
	round       model.Round
	questions   []model.Question
	answers     map[uuid.UUID]model.AnswerValue
	flagged     map[uuid.UUID]bool

	status    model.SessionStatus
	startedAt time.Time
	deadline  time.Time
	remaining int

	// result is the single scoring outcome, kept for persistence retries.
	result      *model.Result
	resultSaved bool

	stopClock context.CancelFunc
}

// Manager coordinates all live sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	store    store.SessionStore
	rounds   RoundSource
	bank     QuestionSource
	results  ResultSink
	gate     EligibilityChecker
	sequence SequenceChecker

	// OnTick, when set, is invoked on every countdown tick and on terminal
	// transitions. Used by the WebSocket hub.
	OnTick TickFunc

	now func() time.Time
	log zerolog.Logger
}

// NewManager creates a session Manager.
func NewManager(
	sessionStore store.SessionStore,
	rounds RoundSource,
	bank QuestionSource,
	results ResultSink,
	gate EligibilityChecker,
	sequence SequenceChecker,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		sessions: make(map[string]*session),
		store:    sessionStore,
		rounds:   rounds,
		bank:     bank,
		results:  results,
		gate:     gate,
		sequence: sequence,
		now:      time.Now,
		log:      log.With().Str("component", "session_engine").Logger(),
	}
}

func sessionKey(candidateID int, roundID uuid.UUID) string {
	return fmt.Sprintf("%d:%s", candidateID, roundID)
}

// Open returns the session snapshot for a candidate and round, creating the
// session on first contact. The cooldown gate and the sequence lock are
// checked only at creation; reloads of an existing session always succeed so
// a candidate is never locked out of an attempt already underway.
func (m *Manager) Open(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.SessionState, error) {
	if s := m.lookup(candidateID, roundID); s != nil {
		return m.snapshotAfterResume(ctx, s)
	}

	round, err := m.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}

	rec, err := m.store.Load(ctx, candidateID, roundID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}

	if rec == nil {
		if elig := m.gate.CheckEligibility(ctx, candidateID, roundID); !elig.Eligible {
			return nil, ErrCooldownActive
		}
		ok, err := m.sequence.CanAttempt(ctx, candidateID, round)
		if err != nil {
			return nil, fmt.Errorf("check sequence: %w", err)
		}
		if !ok {
			return nil, ErrSequenceLocked
		}
	}

	pool, err := m.bank.Questions(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("load question pool: %w", err)
	}

	s := &session{
		candidateID: candidateID,
		round:       *round,
		answers:     make(map[uuid.UUID]model.AnswerValue),
		flagged:     make(map[uuid.UUID]bool),
		status:      model.SessionStatusNotStarted,
	}

	if rec == nil {
		s.questions = sampler.Sample(pool, round.QuestionCount)
	} else {
		if err := m.rehydrate(s, rec, pool); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	if existing, ok := m.sessions[sessionKey(candidateID, roundID)]; ok {
		// Lost the creation race to a concurrent open.
		m.mu.Unlock()
		return m.snapshotAfterResume(ctx, existing)
	}
	m.sessions[sessionKey(candidateID, roundID)] = s
	m.mu.Unlock()

	if rec == nil {
		// The order is persisted only by the registration winner, so the
		// stored order can never diverge from the live session's questions.
		order := make([]uuid.UUID, len(s.questions))
		for i := range s.questions {
			order[i] = s.questions[i].ID
		}
		if err := m.store.SaveOrder(ctx, candidateID, roundID, order); err != nil {
			m.mu.Lock()
			delete(m.sessions, sessionKey(candidateID, roundID))
			m.mu.Unlock()
			return nil, fmt.Errorf("persist question order: %w", err)
		}
	}

	return m.snapshotAfterResume(ctx, s)
}

// rehydrate rebuilds in-memory session state from a persisted record.
func (m *Manager) rehydrate(s *session, rec *store.Record, pool []model.Question) error {
	byID := make(map[uuid.UUID]*model.Question, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
	}

	if len(rec.Order) == 0 {
		return fmt.Errorf("%w: record has no question order", ErrSessionCorrupt)
	}
	if rec.Started && rec.StartedAt.IsZero() {
		return fmt.Errorf("%w: started without a start timestamp", ErrSessionCorrupt)
	}

	s.questions = make([]model.Question, 0, len(rec.Order))
	for _, id := range rec.Order {
		q, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: ordered question %s missing from bank", ErrSessionCorrupt, id)
		}
		s.questions = append(s.questions, *q)
	}

	for id, ans := range rec.Answers {
		s.answers[id] = ans
	}
	for id, flagged := range rec.Flagged {
		if flagged {
			s.flagged[id] = true
		}
	}

	if rec.Started {
		s.status = model.SessionStatusInProgress
		s.startedAt = rec.StartedAt
		s.deadline = rec.StartedAt.Add(s.round.Duration())
	}
	return nil
}

// snapshotAfterResume recomputes the countdown from the wall clock and, if
// the deadline already passed while the session was away, submits on the
// spot before returning the terminal snapshot.
func (m *Manager) snapshotAfterResume(ctx context.Context, s *session) (*model.SessionState, error) {
	s.mu.Lock()
	if s.status == model.SessionStatusInProgress {
		s.remaining = m.remainingLocked(s)
		if s.remaining <= 0 {
			s.mu.Unlock()
			if _, err := m.Submit(ctx, s.candidateID, s.round.ID, model.SubmitTriggerClock); err != nil &&
				!errors.Is(err, ErrAlreadyCompleted) && !errors.Is(err, ErrResultNotSaved) {
				return nil, err
			}
			s.mu.Lock()
		} else if s.stopClock == nil {
			m.startClockLocked(s)
		}
	}
	state := m.stateLocked(s)
	s.mu.Unlock()
	return state, nil
}

// Start begins the countdown. Starting an already running session is
// idempotent and returns the current snapshot.
func (m *Manager) Start(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.SessionState, error) {
	s := m.lookup(candidateID, roundID)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case model.SessionStatusInProgress:
		s.remaining = m.remainingLocked(s)
		return m.stateLocked(s), nil
	case model.SessionStatusSubmitting, model.SessionStatusCompleted:
		return nil, ErrAlreadyCompleted
	}

	now := m.now()
	s.status = model.SessionStatusInProgress
	s.startedAt = now
	s.deadline = now.Add(s.round.Duration())
	s.remaining = int(s.round.Duration().Seconds())

	if err := m.store.MarkStarted(ctx, candidateID, roundID, now, s.remaining); err != nil {
		// In-memory state stays authoritative; the store self-heals on the
		// next write.
		m.log.Error().Err(err).Int("candidate_id", candidateID).Str("round_id", roundID.String()).Msg("Failed to persist session start")
	}

	m.startClockLocked(s)

	m.log.Info().
		Int("candidate_id", candidateID).
		Str("round_id", roundID.String()).
		Int("duration_seconds", s.remaining).
		Msg("Session started")

	return m.stateLocked(s), nil
}

// Answer records an answer for a sampled question.
func (m *Manager) Answer(ctx context.Context, candidateID int, roundID, questionID uuid.UUID, ans model.AnswerValue) (*model.SessionState, error) {
	s := m.lookup(candidateID, roundID)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.mutableLocked(s); err != nil {
		return nil, err
	}
	if !s.contains(questionID) {
		return nil, ErrUnknownQuestion
	}

	s.answers[questionID] = ans
	if err := m.store.SaveAnswer(ctx, candidateID, roundID, questionID, ans); err != nil {
		m.log.Error().Err(err).Str("question_id", questionID.String()).Msg("Failed to persist answer")
	}

	return m.stateLocked(s), nil
}

// Flag sets or clears the review flag on a sampled question.
func (m *Manager) Flag(ctx context.Context, candidateID int, roundID, questionID uuid.UUID, flagged bool) (*model.SessionState, error) {
	s := m.lookup(candidateID, roundID)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.mutableLocked(s); err != nil {
		return nil, err
	}
	if !s.contains(questionID) {
		return nil, ErrUnknownQuestion
	}

	if flagged {
		s.flagged[questionID] = true
	} else {
		delete(s.flagged, questionID)
	}
	if err := m.store.SaveFlag(ctx, candidateID, roundID, questionID, flagged); err != nil {
		m.log.Error().Err(err).Str("question_id", questionID.String()).Msg("Failed to persist flag")
	}

	return m.stateLocked(s), nil
}

// Submit finalizes the attempt. The latch guarantees the session is scored
// exactly once: concurrent submits see ErrSubmitInProgress, later submits
// see the completed snapshot. When the result store rejects the write the
// session still completes in memory but keeps its persisted state so
// Resubmit can retry; ErrResultNotSaved signals that condition.
func (m *Manager) Submit(ctx context.Context, candidateID int, roundID uuid.UUID, trigger model.SubmitTrigger) (*model.SessionState, error) {
	s := m.lookup(candidateID, roundID)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	switch s.status {
	case model.SessionStatusNotStarted:
		s.mu.Unlock()
		return nil, ErrNotStarted
	case model.SessionStatusSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	case model.SessionStatusCompleted:
		state := m.stateLocked(s)
		s.mu.Unlock()
		return state, nil
	}

	s.status = model.SessionStatusSubmitting
	s.remaining = 0
	if s.stopClock != nil {
		s.stopClock()
		s.stopClock = nil
	}

	completedAt := m.now()
	if completedAt.After(s.deadline) {
		completedAt = s.deadline
	}

	res := scorer.Score(s.round, s.questions, s.answers, s.startedAt, completedAt)
	res.CandidateID = candidateID
	s.result = &res
	round := s.round
	s.mu.Unlock()

	// Persist outside the session lock; the SUBMITTING latch keeps every
	// other mutation out meanwhile.
	saveErr := m.results.Save(ctx, &round, &res)

	s.mu.Lock()
	s.status = model.SessionStatusCompleted
	if saveErr == nil {
		s.resultSaved = true
		if err := m.store.Clear(ctx, candidateID, roundID); err != nil {
			m.log.Error().Err(err).Msg("Failed to clear persisted session state")
		}
	}
	state := m.stateLocked(s)
	s.mu.Unlock()

	m.notify(candidateID, roundID, 0, model.SessionStatusCompleted)

	if saveErr != nil {
		m.log.Error().
			Err(saveErr).
			Int("candidate_id", candidateID).
			Str("round_id", roundID.String()).
			Msg("Result persistence failed, session kept replayable")
		return state, ErrResultNotSaved
	}

	m.log.Info().
		Int("candidate_id", candidateID).
		Str("round_id", roundID.String()).
		Str("trigger", string(trigger)).
		Float64("percentage", res.Percentage).
		Msg("Session submitted")

	return state, nil
}

// Resubmit retries result persistence for a completed session whose write
// was rejected. Scoring is never repeated.
func (m *Manager) Resubmit(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.SessionState, error) {
	s := m.lookup(candidateID, roundID)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	if s.status != model.SessionStatusCompleted {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	if s.resultSaved {
		state := m.stateLocked(s)
		s.mu.Unlock()
		return state, ErrResultSaved
	}
	res := s.result
	round := s.round
	s.mu.Unlock()

	if err := m.results.Save(ctx, &round, res); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrResultNotSaved, err)
	}

	s.mu.Lock()
	s.resultSaved = true
	if err := m.store.Clear(ctx, candidateID, roundID); err != nil {
		m.log.Error().Err(err).Msg("Failed to clear persisted session state")
	}
	state := m.stateLocked(s)
	s.mu.Unlock()

	return state, nil
}

// State returns the current snapshot without side effects beyond countdown
// recomputation and overdue auto-submission.
func (m *Manager) State(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.SessionState, error) {
	s := m.lookup(candidateID, roundID)
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return m.snapshotAfterResume(ctx, s)
}

// Sweep force-submits every live session whose deadline has passed. The
// deadline sweeper calls this periodically as a safety net behind the
// per-session clocks.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	overdue := make([]*session, 0)
	for _, s := range m.sessions {
		s.mu.Lock()
		if s.status == model.SessionStatusInProgress && !m.now().Before(s.deadline) {
			overdue = append(overdue, s)
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()

	for _, s := range overdue {
		if _, err := m.Submit(ctx, s.candidateID, s.round.ID, model.SubmitTriggerClock); err != nil &&
			!errors.Is(err, ErrSubmitInProgress) && !errors.Is(err, ErrAlreadyCompleted) {
			m.log.Error().
				Err(err).
				Int("candidate_id", s.candidateID).
				Str("round_id", s.round.ID.String()).
				Msg("Sweeper submit failed")
		}
	}
	return len(overdue)
}

// Shutdown stops all session clocks. Sessions themselves stay persisted in
// the store and are rehydrated on the next open.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		s.mu.Lock()
		if s.stopClock != nil {
			s.stopClock()
			s.stopClock = nil
		}
		s.mu.Unlock()
	}
}

func (m *Manager) lookup(candidateID int, roundID uuid.UUID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[sessionKey(candidateID, roundID)]
}

// mutableLocked rejects mutations outside IN_PROGRESS.
func (m *Manager) mutableLocked(s *session) error {
	switch s.status {
	case model.SessionStatusNotStarted:
		return ErrNotStarted
	case model.SessionStatusSubmitting:
		return ErrSubmitInProgress
	case model.SessionStatusCompleted:
		return ErrAlreadyCompleted
	}
	return nil
}

// remainingLocked recomputes the countdown from the start timestamp, never
// from the cached value, so absences cost real time.
func (m *Manager) remainingLocked(s *session) int {
	rem := int(s.deadline.Sub(m.now()).Seconds())
	if rem < 0 {
		rem = 0
	}
	return rem
}

func (m *Manager) stateLocked(s *session) *model.SessionState {
	questions := make([]model.QuestionForCandidate, len(s.questions))
	for i := range s.questions {
		questions[i] = s.questions[i].ForCandidate()
	}

	answers := make(map[string]model.AnswerValue, len(s.answers))
	for id, ans := range s.answers {
		answers[id.String()] = ans
	}

	flagged := make([]string, 0, len(s.flagged))
	for id := range s.flagged {
		flagged = append(flagged, id.String())
	}

	state := &model.SessionState{
		RoundID:          s.round.ID,
		RoundName:        s.round.Name,
		RoundType:        s.round.RoundType,
		CandidateID:      s.candidateID,
		Status:           s.status,
		DurationMinutes:  s.round.DurationMinutes,
		Questions:        questions,
		Answers:          answers,
		Flagged:          flagged,
		RemainingSeconds: s.remaining,
		ResultSaved:      s.resultSaved,
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		state.StartedAt = &startedAt
	}
	if s.result != nil && s.resultSaved {
		id := s.result.ID
		state.ResultID = &id
	}
	return state
}

func (s *session) contains(questionID uuid.UUID) bool {
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			return true
		}
	}
	return false
}

func (m *Manager) notify(candidateID int, roundID uuid.UUID, remaining int, status model.SessionStatus) {
	if m.OnTick != nil {
		m.OnTick(candidateID, roundID, remaining, status)
	}
}
