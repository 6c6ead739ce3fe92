package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/repository"
)

// ProgressService answers where a candidate stands in a domain's round
// sequence.
type ProgressService struct {
	progressRepo *repository.ProgressRepository
	log          zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(progressRepo *repository.ProgressRepository, log zerolog.Logger) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		log:          log.With().Str("component", "progress_service").Logger(),
	}
}

// ClearedSequence returns the highest round sequence the candidate has
// cleared in the round's domain.
func (s *ProgressService) ClearedSequence(ctx context.Context, candidateID int, round *model.Round) (int, error) {
	return s.progressRepo.ClearedSequence(ctx, candidateID, round.DomainID)
}

// CanAttempt reports whether the candidate has cleared every round that
// precedes this one in the domain sequence. The first round is always
// attemptable.
func (s *ProgressService) CanAttempt(ctx context.Context, candidateID int, round *model.Round) (bool, error) {
	if round.Sequence <= 1 {
		return true, nil
	}
	cleared, err := s.progressRepo.ClearedSequence(ctx, candidateID, round.DomainID)
	if err != nil {
		return false, err
	}
	return cleared >= round.Sequence-1, nil
}
