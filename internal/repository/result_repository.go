package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirestack/interview-backend/internal/model"
)

// ResultRepository persists finalized attempt results and their per-question
// breakdown. A result row is immutable after insert except for the async
// evaluation refinement of provisional entries.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts a result with its breakdown in one transaction and stamps
// the generated id and created_at back onto the model.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO results (round_id, candidate_id, round_type, total_score, max_score, percentage, passed, provisional, started_at, completed_at, elapsed_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		res.RoundID, res.CandidateID, res.RoundType, res.TotalScore, res.MaxScore, res.Percentage,
		res.Passed, res.Provisional, res.StartedAt, res.CompletedAt, res.ElapsedSeconds,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	for i := range res.Breakdown {
		qr := &res.Breakdown[i]
		answer, err := json.Marshal(qr.Answer)
		if err != nil {
			return fmt.Errorf("encode answer: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO result_questions (result_id, question_id, question_type, answer, correct, points_earned, max_points, provisional)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			res.ID, qr.QuestionID, qr.QuestionType, answer, qr.Correct, qr.PointsEarned, qr.MaxPoints, qr.Provisional,
		)
		if err != nil {
			return fmt.Errorf("insert breakdown row: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a result with its full breakdown.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, round_id, candidate_id, round_type, total_score, max_score, percentage, passed, provisional, started_at, completed_at, elapsed_seconds, created_at
		 FROM results
		 WHERE id = $1`, id,
	).Scan(&res.ID, &res.RoundID, &res.CandidateID, &res.RoundType, &res.TotalScore, &res.MaxScore,
		&res.Percentage, &res.Passed, &res.Provisional, &res.StartedAt, &res.CompletedAt, &res.ElapsedSeconds, &res.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT question_id, question_type, answer, correct, points_earned, max_points, provisional
		 FROM result_questions
		 WHERE result_id = $1
		 ORDER BY id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var qr model.QuestionResult
		var answer []byte
		if err := rows.Scan(&qr.QuestionID, &qr.QuestionType, &answer, &qr.Correct, &qr.PointsEarned, &qr.MaxPoints, &qr.Provisional); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answer, &qr.Answer); err != nil {
			return nil, err
		}
		res.Breakdown = append(res.Breakdown, qr)
	}
	return res, rows.Err()
}

// LatestForRound returns the candidate's most recent result on a round, or
// pgx.ErrNoRows when no attempt has been stored.
func (r *ResultRepository) LatestForRound(ctx context.Context, candidateID int, roundID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, round_id, candidate_id, round_type, total_score, max_score, percentage, passed, provisional, started_at, completed_at, elapsed_seconds, created_at
		 FROM results
		 WHERE candidate_id = $1 AND round_id = $2
		 ORDER BY completed_at DESC
		 LIMIT 1`, candidateID, roundID,
	).Scan(&res.ID, &res.RoundID, &res.CandidateID, &res.RoundType, &res.TotalScore, &res.MaxScore,
		&res.Percentage, &res.Passed, &res.Provisional, &res.StartedAt, &res.CompletedAt, &res.ElapsedSeconds, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateEvaluation overwrites a provisional breakdown row with the refined
// score and recomputes the result aggregate. Called by the evaluation worker.
func (r *ResultRepository) UpdateEvaluation(ctx context.Context, resultID, questionID uuid.UUID, pointsEarned float64, correct bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE result_questions
		 SET points_earned = $1, correct = $2, provisional = FALSE
		 WHERE result_id = $3 AND question_id = $4`,
		pointsEarned, correct, resultID, questionID,
	)
	if err != nil {
		return fmt.Errorf("update breakdown row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	_, err = tx.Exec(ctx,
		`UPDATE results r
		 SET total_score = agg.total,
		     percentage  = CASE WHEN r.max_score > 0 THEN agg.total / r.max_score * 100 ELSE 0 END,
		     passed      = CASE WHEN r.max_score > 0 THEN agg.total / r.max_score * 100 >= $2 ELSE FALSE END,
		     provisional = agg.pending > 0
		 FROM (
		     SELECT COALESCE(SUM(points_earned), 0) AS total,
		            COUNT(*) FILTER (WHERE provisional) AS pending
		     FROM result_questions
		     WHERE result_id = $1
		 ) AS agg
		 WHERE r.id = $1`,
		resultID, model.PassThresholdPercent,
	)
	if err != nil {
		return fmt.Errorf("recompute aggregate: %w", err)
	}

	return tx.Commit(ctx)
}
