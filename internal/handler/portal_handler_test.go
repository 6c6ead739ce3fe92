package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirestack/interview-backend/internal/bank"
	"github.com/hirestack/interview-backend/internal/engine"
	"github.com/hirestack/interview-backend/internal/response"
)

func TestFailEngineMapsDomainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{
			name:       "empty bank",
			err:        fmt.Errorf("load question pool: %w", bank.ErrNoQuestions),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   response.ErrNoQuestions,
		},
		{
			name:       "cooldown active",
			err:        engine.ErrCooldownActive,
			wantStatus: http.StatusForbidden,
			wantCode:   response.ErrCooldownActive,
		},
		{
			name:       "sequence locked",
			err:        engine.ErrSequenceLocked,
			wantStatus: http.StatusForbidden,
			wantCode:   response.ErrSequenceLocked,
		},
		{
			name:       "no session",
			err:        engine.ErrSessionNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   response.ErrSessionNotFound,
		},
		{
			name:       "not started",
			err:        engine.ErrNotStarted,
			wantStatus: http.StatusConflict,
			wantCode:   response.ErrSessionNotStarted,
		},
		{
			name:       "already completed",
			err:        engine.ErrAlreadyCompleted,
			wantStatus: http.StatusConflict,
			wantCode:   response.ErrSessionCompleted,
		},
		{
			name:       "unknown question",
			err:        engine.ErrUnknownQuestion,
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrUnknownQuestion,
		},
		{
			name:       "missing row",
			err:        pgx.ErrNoRows,
			wantStatus: http.StatusNotFound,
			wantCode:   response.ErrNotFound,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   response.ErrInternal,
		},
	}

	h := &PortalHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.failEngine(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}
