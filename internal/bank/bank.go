package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/repository"
)

// ErrNoQuestions marks a round whose bank is empty; sessions cannot open on it.
var ErrNoQuestions = errors.New("round has no questions in the bank")

// QuestionBank serves round question pools. PostgreSQL is the source of
// truth; Redis holds the candidate-facing payload and the full scoring pool
// so session opens and submits never touch the database on the hot path.
type QuestionBank struct {
	roundRepo    *repository.RoundRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionBank creates a new QuestionBank.
func NewQuestionBank(
	roundRepo *repository.RoundRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuestionBank {
	return &QuestionBank{
		roundRepo:    roundRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "question_bank").Logger(),
	}
}

// Warm loads a round's question pool from PostgreSQL into Redis: the
// candidate payload (answers stripped) under one key and the full pool
// under a hash keyed by question id.
func (b *QuestionBank) Warm(ctx context.Context, round *model.Round) error {
	questions, err := b.questionRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	candidateQuestions := make([]model.QuestionForCandidate, len(questions))
	for i := range questions {
		candidateQuestions[i] = questions[i].ForCandidate()
	}

	payload := model.RoundPayload{
		RoundID:         round.ID,
		Name:            round.Name,
		RoundType:       round.RoundType,
		DurationMinutes: round.DurationMinutes,
		QuestionCount:   round.QuestionCount,
		Questions:       candidateQuestions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	pool := make(map[string]interface{}, len(questions))
	for i := range questions {
		raw, err := json.Marshal(questions[i])
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		pool[questions[i].ID.String()] = raw
	}

	pipe := b.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.RoundPayloadKey(round.ID.String()), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.RoundAnswerKey(round.ID.String()))
	pipe.HSet(ctx, config.CacheKey.RoundAnswerKey(round.ID.String()), pool)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	b.log.Debug().
		Str("round_id", round.ID.String()).
		Int("questions", len(questions)).
		Msg("Bank cache warmed")
	return nil
}

// PrewarmAll loads every round's bank into Redis on application startup.
// Rounds with empty banks are skipped with a warning so one misconfigured
// round does not block boot.
func (b *QuestionBank) PrewarmAll(ctx context.Context) error {
	rounds, err := b.roundRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list rounds: %w", err)
	}

	if len(rounds) == 0 {
		b.log.Info().Msg("No rounds to prewarm")
		return nil
	}

	b.log.Info().Int("count", len(rounds)).Msg("Prewarming round banks...")

	warmed := 0
	for i := range rounds {
		if err := b.Warm(ctx, &rounds[i]); err != nil {
			b.log.Warn().
				Err(err).
				Str("round_id", rounds[i].ID.String()).
				Msg("Failed to warm round, skipping")
			continue
		}
		warmed++
	}

	b.log.Info().
		Int("warmed", warmed).
		Int("total", len(rounds)).
		Msg("Prewarming complete")
	return nil
}

// Payload retrieves the cached candidate payload for a round. On a cache
// miss it falls back to PostgreSQL and re-warms.
func (b *QuestionBank) Payload(ctx context.Context, roundID uuid.UUID) (*model.RoundPayload, error) {
	data, err := b.rdb.Get(ctx, config.CacheKey.RoundPayloadKey(roundID.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get payload: %w", err)
		}
		if err := b.rewarm(ctx, roundID); err != nil {
			return nil, err
		}
		data, err = b.rdb.Get(ctx, config.CacheKey.RoundPayloadKey(roundID.String())).Bytes()
		if err != nil {
			return nil, fmt.Errorf("get payload after rewarm: %w", err)
		}
	}

	var payload model.RoundPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}

// Questions retrieves the full scoring pool for a round from the cache,
// falling back to PostgreSQL on a miss.
func (b *QuestionBank) Questions(ctx context.Context, roundID uuid.UUID) ([]model.Question, error) {
	raw, err := b.rdb.HGetAll(ctx, config.CacheKey.RoundAnswerKey(roundID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get scoring pool: %w", err)
	}
	if len(raw) == 0 {
		questions, err := b.questionRepo.ListByRound(ctx, roundID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		if len(questions) == 0 {
			return nil, ErrNoQuestions
		}
		return questions, nil
	}

	questions := make([]model.Question, 0, len(raw))
	for id, data := range raw {
		var q model.Question
		if err := json.Unmarshal([]byte(data), &q); err != nil {
			return nil, fmt.Errorf("unmarshal question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (b *QuestionBank) rewarm(ctx context.Context, roundID uuid.UUID) error {
	round, err := b.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return fmt.Errorf("get round: %w", err)
	}
	return b.Warm(ctx, round)
}
