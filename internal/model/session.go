package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitting SessionStatus = "SUBMITTING"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// SubmitTrigger records what caused a submission.
type SubmitTrigger string

const (
	SubmitTriggerManual SubmitTrigger = "manual"
	SubmitTriggerClock  SubmitTrigger = "clock"
)

// SessionState is the snapshot returned to the candidate on open, reload
// and after mutations. Questions carry no correct answers.
type SessionState struct {
	RoundID          uuid.UUID              `json:"round_id"`
	RoundName        string                 `json:"round_name"`
	RoundType        RoundType              `json:"round_type"`
	CandidateID      int                    `json:"candidate_id"`
	Status           SessionStatus          `json:"status"`
	DurationMinutes  int                    `json:"duration_minutes"`
	Questions        []QuestionForCandidate `json:"questions"`
	Answers          map[string]AnswerValue `json:"answers"`
	Flagged          []string               `json:"flagged"`
	StartedAt        *time.Time             `json:"started_at,omitempty"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	ResultID         *uuid.UUID             `json:"result_id,omitempty"`
	ResultSaved      bool                   `json:"result_saved"`
}

// Eligibility is the cooldown gate decision for a round.
type Eligibility struct {
	Eligible bool       `json:"eligible"`
	RetryAt  *time.Time `json:"retry_at,omitempty"`
	Message  string     `json:"message,omitempty"`
}
