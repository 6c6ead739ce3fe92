package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirestack/interview-backend/internal/model"
)

// RoundRepository handles round metadata access.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

// GetByID retrieves a round by its UUID.
func (r *RoundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	rd := &model.Round{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, domain_id, name, round_type, duration_minutes, question_count, sequence, created_at, updated_at
		 FROM rounds
		 WHERE id = $1`, id,
	).Scan(&rd.ID, &rd.DomainID, &rd.Name, &rd.RoundType, &rd.DurationMinutes, &rd.QuestionCount, &rd.Sequence, &rd.CreatedAt, &rd.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rd, nil
}

// Create inserts a new round. Used by the seeder.
func (r *RoundRepository) Create(ctx context.Context, rd *model.Round) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO rounds (domain_id, name, round_type, duration_minutes, question_count, sequence)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		rd.DomainID, rd.Name, rd.RoundType, rd.DurationMinutes, rd.QuestionCount, rd.Sequence,
	).Scan(&rd.ID, &rd.CreatedAt, &rd.UpdatedAt)
}

// ListAll retrieves every round, ordered by domain and sequence. Used by the
// cache prewarm on startup.
func (r *RoundRepository) ListAll(ctx context.Context) ([]model.Round, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, domain_id, name, round_type, duration_minutes, question_count, sequence, created_at, updated_at
		 FROM rounds
		 ORDER BY domain_id, sequence`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		var rd model.Round
		if err := rows.Scan(&rd.ID, &rd.DomainID, &rd.Name, &rd.RoundType, &rd.DurationMinutes, &rd.QuestionCount, &rd.Sequence, &rd.CreatedAt, &rd.UpdatedAt); err != nil {
			return nil, err
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}
