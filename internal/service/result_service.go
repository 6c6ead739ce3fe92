package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/repository"
)

// ResultService persists attempt outcomes and feeds provisional rows to the
// evaluation queue.
type ResultService struct {
	resultRepo   *repository.ResultRepository
	progressRepo *repository.ProgressRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(
	resultRepo *repository.ResultRepository,
	progressRepo *repository.ProgressRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		resultRepo:   resultRepo,
		progressRepo: progressRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "result_service").Logger(),
	}
}

// Save writes the result durably, advances candidate progress on a pass, and
// enqueues provisional breakdown rows for deeper evaluation. The result id is
// stamped on the model; an error means nothing was acknowledged and the
// caller must keep the session replayable.
func (s *ResultService) Save(ctx context.Context, round *model.Round, res *model.Result) error {
	if err := s.resultRepo.Create(ctx, res); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}

	if res.Passed {
		if err := s.progressRepo.AdvanceTo(ctx, res.CandidateID, round.DomainID, round.Sequence); err != nil {
			// Progress is derivable from results, so a failed upsert is
			// logged and retried on the next pass rather than failing the
			// submission.
			s.log.Error().
				Err(err).
				Int("candidate_id", res.CandidateID).
				Str("round_id", round.ID.String()).
				Msg("Failed to advance candidate progress")
		}
	}

	s.enqueueEvaluations(ctx, res)

	s.log.Info().
		Str("result_id", res.ID.String()).
		Int("candidate_id", res.CandidateID).
		Str("round_id", res.RoundID.String()).
		Float64("percentage", res.Percentage).
		Bool("passed", res.Passed).
		Msg("Result saved")
	return nil
}

// enqueueEvaluations pushes each provisional breakdown row onto the
// evaluation queue. Queue failures degrade gracefully: the stored score
// simply stays at its heuristic value.
func (s *ResultService) enqueueEvaluations(ctx context.Context, res *model.Result) {
	for _, qr := range res.Breakdown {
		if !qr.Provisional {
			continue
		}
		job := model.EvaluationJob{
			ResultID:     res.ID,
			QuestionID:   qr.QuestionID,
			QuestionType: qr.QuestionType,
			Answer:       qr.Answer,
			MaxPoints:    qr.MaxPoints,
		}
		data, err := json.Marshal(job)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to encode evaluation job")
			continue
		}
		if err := s.rdb.RPush(ctx, config.WorkerKey.EvaluateResultsQueue, data).Err(); err != nil {
			s.log.Error().
				Err(err).
				Str("result_id", res.ID.String()).
				Msg("Failed to enqueue evaluation job")
		}
	}
}

// GetByID retrieves a stored result with its breakdown.
func (s *ResultService) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	return s.resultRepo.GetByID(ctx, id)
}

// LatestForRound returns the candidate's most recent result on a round.
func (s *ResultService) LatestForRound(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.Result, error) {
	return s.resultRepo.LatestForRound(ctx, candidateID, roundID)
}
