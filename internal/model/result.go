package model

import (
	"time"

	"github.com/google/uuid"
)

// PassThresholdPercent is the fixed pass/fail policy of the engine.
const PassThresholdPercent = 60.0

// QuestionResult is the per-question scoring breakdown of an attempt.
// Provisional marks heuristic scores that a later deeper evaluation
// may overwrite server-side.
type QuestionResult struct {
	QuestionID   uuid.UUID    `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	Answer       AnswerValue  `json:"answer"`
	Correct      bool         `json:"correct"`
	PointsEarned float64      `json:"points_earned"`
	MaxPoints    float64      `json:"max_points"`
	Provisional  bool         `json:"provisional"`
}

// Result is a finalized attempt outcome. Immutable once acknowledged by the
// result store, except for async evaluation refinements of provisional rows.
type Result struct {
	ID             uuid.UUID        `json:"id"`
	RoundID        uuid.UUID        `json:"round_id"`
	CandidateID    int              `json:"candidate_id"`
	RoundType      RoundType        `json:"round_type"`
	TotalScore     float64          `json:"total_score"`
	MaxScore       float64          `json:"max_score"`
	Percentage     float64          `json:"percentage"`
	Passed         bool             `json:"passed"`
	Provisional    bool             `json:"provisional"`
	Breakdown      []QuestionResult `json:"breakdown"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    time.Time        `json:"completed_at"`
	ElapsedSeconds int              `json:"elapsed_seconds"`
	CreatedAt      time.Time        `json:"created_at"`
}

// EvaluationJob is one provisional breakdown row queued for the deeper
// server-side re-score. Serialized as JSON onto the evaluation queue.
type EvaluationJob struct {
	ResultID     uuid.UUID    `json:"result_id"`
	QuestionID   uuid.UUID    `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	Answer       AnswerValue  `json:"answer"`
	MaxPoints    float64      `json:"max_points"`
}
