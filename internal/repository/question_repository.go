package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hirestack/interview-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByRound retrieves the full question pool for a round.
func (r *QuestionRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, round_id, question_type, prompt, options, correct_answer, points, starter_code, description
		 FROM questions
		 WHERE round_id = $1
		 ORDER BY created_at`, roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.RoundID, &q.QuestionType, &q.Prompt, &options, &q.CorrectAnswer, &q.Points, &q.StarterCode, &q.Description); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, err
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Create inserts a new question. Used by the seeder.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (round_id, question_type, prompt, options, correct_answer, points, starter_code, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		q.RoundID, q.QuestionType, q.Prompt, options, q.CorrectAnswer, q.Points, q.StarterCode, q.Description,
	).Scan(&q.ID)
}
