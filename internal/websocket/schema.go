package websocket

import (
	"github.com/hirestack/interview-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionFlag     Action = "flag"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AutosaveRequest is sent by the client to save a single answer.
type AutosaveRequest struct {
	Action Action            `json:"action"`
	QID    string            `json:"q_id"`
	Answer model.AnswerValue `json:"answer"`
}

// FlagRequest marks or unmarks a question for review.
type FlagRequest struct {
	Action  Action `json:"action"`
	QID     string `json:"q_id"`
	Flagged bool   `json:"flagged"`
}

// SubmitRequest is sent by the client to finish the session.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSuccess   Event = "success"
	EventTick      Event = "tick"
	EventCompleted Event = "completed"
	EventPong      Event = "pong"
)

type AckResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// TickEvent is the countdown heartbeat pushed once per second while the
// session is in progress.
type TickEvent struct {
	Event     Event               `json:"event"`
	Remaining int                 `json:"remaining_seconds"`
	Status    model.SessionStatus `json:"status"`
}

// CompletedEvent is pushed once when the session reaches its terminal state.
type CompletedEvent struct {
	Event       Event  `json:"event"`
	Status      string `json:"status"`
	ResultID    string `json:"result_id,omitempty"`
	ResultSaved bool   `json:"result_saved"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
