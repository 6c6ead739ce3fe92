package model

import (
	"time"

	"github.com/google/uuid"
)

// RoundType enumerates the assessment round kinds.
type RoundType string

const (
	RoundTypeMCQ          RoundType = "MCQ"
	RoundTypeCoding       RoundType = "CODING"
	RoundTypeProject      RoundType = "PROJECT"
	RoundTypeSystemDesign RoundType = "SYSTEM_DESIGN"
	RoundTypeMixed        RoundType = "MIXED"
)

// Round is one timed assessment belonging to a domain. QuestionCount is the
// target number of questions sampled from the round's bank; DurationMinutes
// bounds the session countdown.
type Round struct {
	ID              uuid.UUID `json:"id"`
	DomainID        uuid.UUID `json:"domain_id"`
	Name            string    `json:"name"`
	RoundType       RoundType `json:"round_type"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	Sequence        int       `json:"sequence"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Duration returns the round's full time allowance.
func (r *Round) Duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// RoundPayload is the Redis-cached candidate-facing bank payload
// (full pool, no correct answers). Sampling happens per session.
type RoundPayload struct {
	RoundID         uuid.UUID              `json:"round_id"`
	Name            string                 `json:"name"`
	RoundType       RoundType              `json:"round_type"`
	DurationMinutes int                    `json:"duration_minutes"`
	QuestionCount   int                    `json:"question_count"`
	Questions       []QuestionForCandidate `json:"questions"`
}
