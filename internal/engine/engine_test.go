package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/interview-backend/internal/bank"
	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/store"
)

type stubRounds struct {
	round model.Round
}

func (s *stubRounds) GetByID(_ context.Context, id uuid.UUID) (*model.Round, error) {
	if id != s.round.ID {
		return nil, errors.New("round not found")
	}
	r := s.round
	return &r, nil
}

type stubBank struct {
	pool []model.Question
	err  error
}

func (s *stubBank) Questions(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.Question(nil), s.pool...), nil
}

type stubSink struct {
	mu      sync.Mutex
	saved   []*model.Result
	failErr error
}

func (s *stubSink) Save(_ context.Context, _ *model.Round, res *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	res.ID = uuid.New()
	cp := *res
	s.saved = append(s.saved, &cp)
	return nil
}

func (s *stubSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type stubGate struct {
	elig model.Eligibility
}

func (s *stubGate) CheckEligibility(_ context.Context, _ int, _ uuid.UUID) model.Eligibility {
	return s.elig
}

type stubSequence struct {
	ok bool
}

func (s *stubSequence) CanAttempt(_ context.Context, _ int, _ *model.Round) (bool, error) {
	return s.ok, nil
}

type fixture struct {
	manager *Manager
	store   *store.MemoryStore
	round   model.Round
	sink    *stubSink
	gate    *stubGate
	bank    *stubBank
	clock   *time.Time
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func buildFixture(t *testing.T) (*fixture, []model.Question) {
	t.Helper()

	round := model.Round{
		ID:              uuid.New(),
		DomainID:        uuid.New(),
		Name:            "Backend Screening",
		RoundType:       model.RoundTypeMCQ,
		DurationMinutes: 10,
		QuestionCount:   3,
		Sequence:        1,
	}

	pool := make([]model.Question, 5)
	for i := range pool {
		pool[i] = model.Question{
			ID:            uuid.New(),
			RoundID:       round.ID,
			QuestionType:  model.QuestionTypeMCQ,
			Prompt:        "pick one",
			Options:       []string{"A", "B", "C"},
			CorrectAnswer: "B",
			Points:        10,
		}
	}

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		store: store.NewMemoryStore(),
		round: round,
		sink:  &stubSink{},
		gate:  &stubGate{elig: model.Eligibility{Eligible: true}},
		clock: &now,
		bank:  &stubBank{pool: pool},
	}
	f.manager = f.freshManager()
	t.Cleanup(f.manager.Shutdown)
	return f, pool
}

func (f *fixture) freshManager() *Manager {
	m := NewManager(f.store, &stubRounds{round: f.round}, f.bank, f.sink, f.gate, &stubSequence{ok: true}, zerolog.Nop())
	m.now = func() time.Time { return *f.clock }
	return m
}

func TestOpenSamplesAndPersistsOrder(t *testing.T) {
	f, pool := buildFixture(t)
	ctx := context.Background()

	state, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusNotStarted, state.Status)
	assert.Len(t, state.Questions, 3)

	poolIDs := make(map[uuid.UUID]bool, len(pool))
	for _, q := range pool {
		poolIDs[q.ID] = true
	}
	for _, q := range state.Questions {
		assert.True(t, poolIDs[q.ID], "sampled question must come from the pool")
		assert.Len(t, q.Options, 3)
	}

	rec, err := f.store.Load(ctx, 1, f.round.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Order, 3)
}

func TestOpenFailsWhenBankIsEmpty(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	f.bank.err = bank.ErrNoQuestions

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, bank.ErrNoQuestions)

	// No half-built session lingers.
	_, err = f.manager.State(ctx, 1, f.round.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentOpensShareOneSampledOrder(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	const openers = 8
	states := make([]*model.SessionState, openers)
	errs := make([]error, openers)

	var wg sync.WaitGroup
	for i := 0; i < openers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i], errs[i] = f.manager.Open(ctx, 1, f.round.ID)
		}(i)
	}
	wg.Wait()

	first := states[0]
	require.NotNil(t, first)
	for i := range states {
		require.NoError(t, errs[i])
		require.Len(t, states[i].Questions, 3)
		for j := range first.Questions {
			assert.Equal(t, first.Questions[j].ID, states[i].Questions[j].ID,
				"every concurrent open must see the same sampled set")
		}
	}

	// The persisted order matches the live session: a restart rehydrates
	// the identical set in the identical order.
	restarted := f.freshManager()
	t.Cleanup(restarted.Shutdown)
	resumed, err := restarted.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	require.Len(t, resumed.Questions, 3)
	for j := range first.Questions {
		assert.Equal(t, first.Questions[j].ID, resumed.Questions[j].ID)
	}
}

// failingOrderStore rejects order writes while fail is set.
type failingOrderStore struct {
	store.SessionStore
	fail bool
}

func (s *failingOrderStore) SaveOrder(ctx context.Context, candidateID int, roundID uuid.UUID, order []uuid.UUID) error {
	if s.fail {
		return errors.New("redis down")
	}
	return s.SessionStore.SaveOrder(ctx, candidateID, roundID, order)
}

func TestOpenRollsBackWhenOrderPersistFails(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	flaky := &failingOrderStore{SessionStore: f.store, fail: true}
	m := NewManager(flaky, &stubRounds{round: f.round}, f.bank, f.sink, f.gate, &stubSequence{ok: true}, zerolog.Nop())
	m.now = func() time.Time { return *f.clock }
	t.Cleanup(m.Shutdown)

	_, err := m.Open(ctx, 1, f.round.ID)
	require.Error(t, err)
	_, err = m.State(ctx, 1, f.round.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "unregistered after a failed order write")

	flaky.fail = false
	state, err := m.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	assert.Len(t, state.Questions, 3)
}

func TestResumePreservesOrderAndAnswers(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	state, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	q0 := state.Questions[0].ID
	sel := 1
	_, err = f.manager.Answer(ctx, 1, f.round.ID, q0, model.AnswerValue{SelectedOption: &sel})
	require.NoError(t, err)
	_, err = f.manager.Flag(ctx, 1, f.round.ID, state.Questions[1].ID, true)
	require.NoError(t, err)

	// Simulate a restart: fresh manager over the same store, five minutes
	// later.
	f.advance(5 * time.Minute)
	restarted := f.freshManager()
	t.Cleanup(restarted.Shutdown)

	resumed, err := restarted.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusInProgress, resumed.Status)
	require.Len(t, resumed.Questions, 3)
	for i := range state.Questions {
		assert.Equal(t, state.Questions[i].ID, resumed.Questions[i].ID, "question order must survive reload")
	}
	require.Contains(t, resumed.Answers, q0.String())
	assert.Equal(t, &sel, resumed.Answers[q0.String()].SelectedOption)
	assert.Contains(t, resumed.Flagged, state.Questions[1].ID.String())
	assert.Equal(t, 300, resumed.RemainingSeconds, "countdown recomputed from start time, not cached value")
}

func TestResumePastDeadlineAutoSubmits(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	f.advance(11 * time.Minute)
	restarted := f.freshManager()
	t.Cleanup(restarted.Shutdown)

	resumed, err := restarted.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusCompleted, resumed.Status)
	assert.Equal(t, 0, resumed.RemainingSeconds)
	assert.Equal(t, 1, f.sink.count())

	// The scored window is clamped to the round duration.
	res := f.sink.saved[0]
	assert.Equal(t, 600, res.ElapsedSeconds)
}

func TestSubmitScoresOnceAndClearsStore(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	state, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	correct := 1 // option "B"
	for _, q := range state.Questions {
		_, err = f.manager.Answer(ctx, 1, f.round.ID, q.ID, model.AnswerValue{SelectedOption: &correct})
		require.NoError(t, err)
	}

	f.advance(2 * time.Minute)
	submitted, err := f.manager.Submit(ctx, 1, f.round.ID, model.SubmitTriggerManual)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusCompleted, submitted.Status)
	assert.True(t, submitted.ResultSaved)
	require.NotNil(t, submitted.ResultID)

	require.Equal(t, 1, f.sink.count())
	res := f.sink.saved[0]
	assert.Equal(t, 1, res.CandidateID)
	assert.InDelta(t, 30.0, res.TotalScore, 0.0001)
	assert.InDelta(t, 100.0, res.Percentage, 0.0001)
	assert.True(t, res.Passed)
	assert.Equal(t, 120, res.ElapsedSeconds)

	// Latch: a second submit returns the snapshot without re-scoring.
	again, err := f.manager.Submit(ctx, 1, f.round.ID, model.SubmitTriggerManual)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, again.Status)
	assert.Equal(t, 1, f.sink.count())

	rec, err := f.store.Load(ctx, 1, f.round.ID)
	require.NoError(t, err)
	assert.Nil(t, rec, "persisted state cleared after result acknowledgment")
}

func TestSubmitKeepsStateWhenPersistenceFails(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	f.sink.failErr = errors.New("database down")
	state, err := f.manager.Submit(ctx, 1, f.round.ID, model.SubmitTriggerManual)
	require.ErrorIs(t, err, ErrResultNotSaved)
	assert.Equal(t, model.SessionStatusCompleted, state.Status)
	assert.False(t, state.ResultSaved)

	rec, loadErr := f.store.Load(ctx, 1, f.round.ID)
	require.NoError(t, loadErr)
	assert.NotNil(t, rec, "persisted state survives a rejected write")

	// Resubmit retries persistence only; scoring is not repeated.
	f.sink.failErr = nil
	retried, err := f.manager.Resubmit(ctx, 1, f.round.ID)
	require.NoError(t, err)
	assert.True(t, retried.ResultSaved)
	assert.Equal(t, 1, f.sink.count())

	rec, loadErr = f.store.Load(ctx, 1, f.round.ID)
	require.NoError(t, loadErr)
	assert.Nil(t, rec)

	// A second resubmit reports the result already saved.
	_, err = f.manager.Resubmit(ctx, 1, f.round.ID)
	assert.ErrorIs(t, err, ErrResultSaved)
}

func TestMutationGuards(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	state, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)

	sel := 0
	_, err = f.manager.Answer(ctx, 1, f.round.ID, state.Questions[0].ID, model.AnswerValue{SelectedOption: &sel})
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = f.manager.Submit(ctx, 1, f.round.ID, model.SubmitTriggerManual)
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	_, err = f.manager.Answer(ctx, 1, f.round.ID, uuid.New(), model.AnswerValue{SelectedOption: &sel})
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = f.manager.Submit(ctx, 1, f.round.ID, model.SubmitTriggerManual)
	require.NoError(t, err)

	_, err = f.manager.Answer(ctx, 1, f.round.ID, state.Questions[0].ID, model.AnswerValue{SelectedOption: &sel})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCooldownBlocksNewSessionOnly(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	// The gate flips mid-session; the open attempt is unaffected.
	retryAt := f.clock.Add(7 * 24 * time.Hour)
	f.gate.elig = model.Eligibility{Eligible: false, RetryAt: &retryAt}

	state, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, state.Status)

	// A different candidate with no session is blocked.
	_, err = f.manager.Open(ctx, 2, f.round.ID)
	assert.ErrorIs(t, err, ErrCooldownActive)
}

func TestSweepSubmitsOverdueSessions(t *testing.T) {
	f, _ := buildFixture(t)
	ctx := context.Background()

	_, err := f.manager.Open(ctx, 1, f.round.ID)
	require.NoError(t, err)
	_, err = f.manager.Start(ctx, 1, f.round.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, f.manager.Sweep(ctx), "live session is not overdue")

	f.advance(10*time.Minute + time.Second)
	assert.Equal(t, 1, f.manager.Sweep(ctx))
	assert.Equal(t, 1, f.sink.count())

	state, err := f.manager.State(ctx, 1, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, state.Status)
}
