package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository tracks how far a candidate has advanced through a
// domain's round sequence.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// AdvanceTo records that the candidate cleared the round with the given
// sequence number. A lower sequence never regresses stored progress.
func (r *ProgressRepository) AdvanceTo(ctx context.Context, candidateID int, domainID uuid.UUID, sequence int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO candidate_progress (candidate_id, domain_id, cleared_sequence, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (candidate_id, domain_id) DO UPDATE
		 SET cleared_sequence = GREATEST(candidate_progress.cleared_sequence, EXCLUDED.cleared_sequence),
		     updated_at = NOW()`,
		candidateID, domainID, sequence,
	)
	return err
}

// ClearedSequence returns the highest round sequence the candidate has
// cleared in a domain, or 0 when no progress exists.
func (r *ProgressRepository) ClearedSequence(ctx context.Context, candidateID int, domainID uuid.UUID) (int, error) {
	var seq int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(cleared_sequence), 0)
		 FROM candidate_progress
		 WHERE candidate_id = $1 AND domain_id = $2`,
		candidateID, domainID,
	).Scan(&seq)
	return seq, err
}
