package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hirestack/interview-backend/internal/bank"
	"github.com/hirestack/interview-backend/internal/engine"
	"github.com/hirestack/interview-backend/internal/gate"
	"github.com/hirestack/interview-backend/internal/middleware"
	"github.com/hirestack/interview-backend/internal/model"
	"github.com/hirestack/interview-backend/internal/response"
	"github.com/hirestack/interview-backend/internal/service"
	"github.com/hirestack/interview-backend/internal/validator"
)

// PortalHandler handles candidate-facing session endpoints.
type PortalHandler struct {
	engine        *engine.Manager
	gate          *gate.CooldownGate
	resultService *service.ResultService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(eng *engine.Manager, g *gate.CooldownGate, resultService *service.ResultService) *PortalHandler {
	return &PortalHandler{
		engine:        eng,
		gate:          g,
		resultService: resultService,
	}
}

// GetEligibility godoc
// GET /api/v1/candidate/rounds/:round_id/eligibility
// Returns the cooldown gate decision for the round.
func (h *PortalHandler) GetEligibility(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	elig := h.gate.CheckEligibility(c.Request.Context(), claims.CandidateID, roundID)
	response.Success(c, http.StatusOK, elig)
}

// OpenSession godoc
// POST|GET /api/v1/candidate/rounds/:round_id/session
// Opens (or resumes) the candidate's session and returns the full snapshot.
// Questions are sampled exactly once per attempt; reloads return the same
// set in the same order.
func (h *PortalHandler) OpenSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.engine.Open(c.Request.Context(), claims.CandidateID, roundID)
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// StartSession godoc
// POST /api/v1/candidate/rounds/:round_id/session/start
// Starts the countdown. Idempotent for an already running session.
func (h *PortalHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.engine.Start(c.Request.Context(), claims.CandidateID, roundID)
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SaveAnswer godoc
// PUT /api/v1/candidate/rounds/:round_id/session/answers/:question_id
// Records an answer for one sampled question.
func (h *PortalHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.engine.Answer(c.Request.Context(), claims.CandidateID, roundID, questionID, req.Value())
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// FlagQuestion godoc
// POST /api/v1/candidate/rounds/:round_id/session/flags/:question_id
// Marks or unmarks a question for review.
func (h *PortalHandler) FlagQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req struct {
		Flagged bool `json:"flagged"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.engine.Flag(c.Request.Context(), claims.CandidateID, roundID, questionID, req.Flagged)
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitSession godoc
// POST /api/v1/candidate/rounds/:round_id/session/submit
// Finalizes the attempt: scores once, persists, returns the snapshot.
func (h *PortalHandler) SubmitSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.engine.Submit(c.Request.Context(), claims.CandidateID, roundID, model.SubmitTriggerManual)
	if errors.Is(err, engine.ErrResultNotSaved) {
		// The attempt is scored but not yet durable; the client should call
		// resubmit. 502 signals the storage failure without losing the state.
		c.JSON(http.StatusBadGateway, response.Response{
			Data:  state,
			Error: &response.ErrorBody{Code: response.ErrResultNotSaved, Message: response.GetMessage(response.ErrResultNotSaved)},
		})
		return
	}
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// ResubmitSession godoc
// POST /api/v1/candidate/rounds/:round_id/session/resubmit
// Retries result persistence for a completed session. Never re-scores.
func (h *PortalHandler) ResubmitSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.engine.Resubmit(c.Request.Context(), claims.CandidateID, roundID)
	if errors.Is(err, engine.ErrResultSaved) {
		response.Success(c, http.StatusOK, state)
		return
	}
	if err != nil {
		h.failEngine(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetResult godoc
// GET /api/v1/candidate/results/:result_id
// Returns a stored result with its per-question breakdown. Candidates can
// only read their own results.
func (h *PortalHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.GetByID(c.Request.Context(), resultID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if result.CandidateID != claims.CandidateID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// failEngine maps engine errors onto API error codes.
func (h *PortalHandler) failEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrCooldownActive):
		response.Fail(c, http.StatusForbidden, response.ErrCooldownActive)
	case errors.Is(err, engine.ErrSequenceLocked):
		response.Fail(c, http.StatusForbidden, response.ErrSequenceLocked)
	case errors.Is(err, bank.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	case errors.Is(err, engine.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, engine.ErrNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotStarted)
	case errors.Is(err, engine.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, engine.ErrSubmitInProgress):
		response.Fail(c, http.StatusConflict, response.ErrSessionConflict)
	case errors.Is(err, engine.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, engine.ErrSessionCorrupt):
		response.Fail(c, http.StatusInternalServerError, response.ErrSessionInconsistent)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
