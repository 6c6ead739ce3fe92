package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/model"
)

// RedisStore implements SessionStore on Redis. Answers and flags live in
// hashes keyed per question id; scalar fields are plain keys. Keys are built
// through config.CacheKey so the layout stays in one place.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context, candidateID int, roundID uuid.UUID) (*Record, error) {
	rid := roundID.String()

	pipe := s.rdb.Pipeline()
	startedCmd := pipe.Get(ctx, config.CacheKey.SessionStartedKey(candidateID, rid))
	startAtCmd := pipe.Get(ctx, config.CacheKey.SessionStartKey(candidateID, rid))
	remainingCmd := pipe.Get(ctx, config.CacheKey.SessionRemainingKey(candidateID, rid))
	orderCmd := pipe.Get(ctx, config.CacheKey.SessionOrderKey(candidateID, rid))
	answersCmd := pipe.HGetAll(ctx, config.CacheKey.SessionAnswersKey(candidateID, rid))
	flaggedCmd := pipe.HGetAll(ctx, config.CacheKey.SessionFlaggedKey(candidateID, rid))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	orderRaw, orderErr := orderCmd.Result()
	started := startedCmd.Val() == "1"

	// No sampled order and no started flag means nothing was ever persisted.
	if errors.Is(orderErr, redis.Nil) && !started {
		return nil, nil
	}

	rec := &Record{
		Started: started,
		Answers: make(map[uuid.UUID]model.AnswerValue),
		Flagged: make(map[uuid.UUID]bool),
	}

	if orderErr == nil && orderRaw != "" {
		if err := json.Unmarshal([]byte(orderRaw), &rec.Order); err != nil {
			return nil, fmt.Errorf("decode question order: %w", err)
		}
	}

	if v, err := startAtCmd.Result(); err == nil {
		unix, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode start timestamp: %w", err)
		}
		rec.StartedAt = time.Unix(unix, 0)
	}

	if v, err := remainingCmd.Result(); err == nil {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("decode remaining seconds: %w", err)
		}
		rec.Remaining = n
	}

	for field, raw := range answersCmd.Val() {
		qid, err := uuid.Parse(field)
		if err != nil {
			continue // Skip malformed fields rather than failing the resume.
		}
		var ans model.AnswerValue
		if err := json.Unmarshal([]byte(raw), &ans); err != nil {
			continue
		}
		rec.Answers[qid] = ans
	}

	for field, raw := range flaggedCmd.Val() {
		qid, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		rec.Flagged[qid] = raw == "1"
	}

	return rec, nil
}

func (s *RedisStore) SaveOrder(ctx context.Context, candidateID int, roundID uuid.UUID, order []uuid.UUID) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode question order: %w", err)
	}
	return s.rdb.Set(ctx, config.CacheKey.SessionOrderKey(candidateID, roundID.String()), raw, 0).Err()
}

func (s *RedisStore) MarkStarted(ctx context.Context, candidateID int, roundID uuid.UUID, startedAt time.Time, remaining int) error {
	rid := roundID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionStartKey(candidateID, rid), startedAt.Unix(), 0)
	pipe.Set(ctx, config.CacheKey.SessionStartedKey(candidateID, rid), "1", 0)
	pipe.Set(ctx, config.CacheKey.SessionRemainingKey(candidateID, rid), remaining, 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SaveAnswer(ctx context.Context, candidateID int, roundID uuid.UUID, questionID uuid.UUID, ans model.AnswerValue) error {
	raw, err := json.Marshal(ans)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	key := config.CacheKey.SessionAnswersKey(candidateID, roundID.String())
	if err := s.rdb.HSet(ctx, key, questionID.String(), raw).Err(); err != nil {
		return err
	}

	// Write-behind durability: the autosave worker copies the answer into
	// PostgreSQL so an in-flight attempt survives a Redis flush.
	job, err := json.Marshal(persistAnswerJob{
		CandidateID: candidateID,
		RoundID:     roundID.String(),
		QID:         questionID.String(),
		Answer:      ans,
	})
	if err != nil {
		return fmt.Errorf("encode persist job: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, job).Err()
}

// persistAnswerJob is the wire shape of one autosave queue entry.
type persistAnswerJob struct {
	CandidateID int               `json:"candidate_id"`
	RoundID     string            `json:"round_id"`
	QID         string            `json:"q_id"`
	Answer      model.AnswerValue `json:"answer"`
}

func (s *RedisStore) SaveFlag(ctx context.Context, candidateID int, roundID uuid.UUID, questionID uuid.UUID, flagged bool) error {
	key := config.CacheKey.SessionFlaggedKey(candidateID, roundID.String())
	if !flagged {
		return s.rdb.HDel(ctx, key, questionID.String()).Err()
	}
	return s.rdb.HSet(ctx, key, questionID.String(), "1").Err()
}

func (s *RedisStore) SaveRemaining(ctx context.Context, candidateID int, roundID uuid.UUID, seconds int) error {
	return s.rdb.Set(ctx, config.CacheKey.SessionRemainingKey(candidateID, roundID.String()), seconds, 0).Err()
}

func (s *RedisStore) Clear(ctx context.Context, candidateID int, roundID uuid.UUID) error {
	rid := roundID.String()
	return s.rdb.Del(ctx,
		config.CacheKey.SessionAnswersKey(candidateID, rid),
		config.CacheKey.SessionFlaggedKey(candidateID, rid),
		config.CacheKey.SessionOrderKey(candidateID, rid),
		config.CacheKey.SessionStartKey(candidateID, rid),
		config.CacheKey.SessionStartedKey(candidateID, rid),
		config.CacheKey.SessionRemainingKey(candidateID, rid),
	).Err()
}
