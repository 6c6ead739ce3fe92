package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/engine"
	"github.com/hirestack/interview-backend/internal/middleware"
	"github.com/hirestack/interview-backend/internal/model"
	ws "github.com/hirestack/interview-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session countdown ticks and accepts live mutations.
type WSHandler struct {
	engine   *engine.Manager
	hub      *ws.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(eng *engine.Manager, hub *ws.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		engine:   eng,
		hub:      hub,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; gorilla/websocket permits one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	_ = w.write(ws.ErrorResponse{Event: ws.EventError, Error: msg})
}

// SessionStream godoc
// WS /ws/v1/candidate/rounds/:round_id/stream
// Upgrades to WebSocket for countdown ticks and live answer autosave.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roundID, err := uuid.Parse(c.Param("round_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round ID"})
		return
	}

	rawConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer rawConn.Close()
	conn := &wsConn{conn: rawConn}

	candidateID := claims.CandidateID

	state, err := h.engine.State(c.Request.Context(), candidateID, roundID)
	if err != nil {
		conn.writeError("no open session for this round")
		return
	}

	wsLog := h.log.With().
		Int("candidate_id", candidateID).
		Str("round_id", roundID.String()).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	// Initial tick so the client can render the countdown immediately.
	_ = conn.write(ws.TickEvent{Event: ws.EventTick, Remaining: state.RemainingSeconds, Status: state.Status})

	ticks, unsubscribe := h.hub.Subscribe(candidateID, roundID)
	defer unsubscribe()

	done := make(chan struct{})
	go h.pushTicks(conn, ticks, done, candidateID, roundID)
	defer close(done)

	for {
		_, data, err := rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			conn.writeError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, candidateID, roundID, data)
		case ws.ActionFlag:
			h.handleFlag(conn, wsLog, candidateID, roundID, data)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, candidateID, roundID)
		case ws.ActionPing:
			_ = conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(envelope.Action))
		}
	}
}

// pushTicks forwards hub ticks to the connection until the reader exits.
func (h *WSHandler) pushTicks(conn *wsConn, ticks <-chan ws.TickEvent, done <-chan struct{}, candidateID int, roundID uuid.UUID) {
	for {
		select {
		case <-done:
			return
		case ev := <-ticks:
			if ev.Status == model.SessionStatusCompleted {
				state, err := h.engine.State(context.Background(), candidateID, roundID)
				completed := ws.CompletedEvent{Event: ws.EventCompleted, Status: string(model.SessionStatusCompleted)}
				if err == nil {
					completed.ResultSaved = state.ResultSaved
					if state.ResultID != nil {
						completed.ResultID = state.ResultID.String()
					}
				}
				_ = conn.write(completed)
				continue
			}
			if err := conn.write(ev); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleAutosave(conn *wsConn, wsLog zerolog.Logger, candidateID int, roundID uuid.UUID, data []byte) {
	var msg ws.AutosaveRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		conn.writeError("malformed autosave payload")
		return
	}

	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		conn.writeError("invalid q_id format")
		return
	}

	if _, err := h.engine.Answer(context.Background(), candidateID, roundID, questionID, msg.Answer); err != nil {
		wsLog.Debug().Err(err).Str("q_id", msg.QID).Msg("Autosave rejected")
		conn.writeError(err.Error())
		return
	}

	_ = conn.write(ws.AckResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleFlag(conn *wsConn, wsLog zerolog.Logger, candidateID int, roundID uuid.UUID, data []byte) {
	var msg ws.FlagRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		conn.writeError("malformed flag payload")
		return
	}

	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		conn.writeError("invalid q_id format")
		return
	}

	if _, err := h.engine.Flag(context.Background(), candidateID, roundID, questionID, msg.Flagged); err != nil {
		wsLog.Debug().Err(err).Str("q_id", msg.QID).Msg("Flag rejected")
		conn.writeError(err.Error())
		return
	}

	_ = conn.write(ws.AckResponse{Event: ws.EventSuccess, Status: "saved"})
}

func (h *WSHandler) handleSubmit(conn *wsConn, wsLog zerolog.Logger, candidateID int, roundID uuid.UUID) {
	state, err := h.engine.Submit(context.Background(), candidateID, roundID, model.SubmitTriggerManual)
	if err != nil && !errors.Is(err, engine.ErrResultNotSaved) {
		wsLog.Warn().Err(err).Msg("WebSocket submit rejected")
		conn.writeError(err.Error())
		return
	}

	completed := ws.CompletedEvent{
		Event:       ws.EventCompleted,
		Status:      string(state.Status),
		ResultSaved: state.ResultSaved,
	}
	if state.ResultID != nil {
		completed.ResultID = state.ResultID.String()
	}
	_ = conn.write(completed)
}
