package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/handler"
	"github.com/hirestack/interview-backend/internal/middleware"
	"github.com/hirestack/interview-backend/internal/response"
	"github.com/hirestack/interview-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Portal *handler.PortalHandler
	WS     *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokenService *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter shielding the mutation-heavy session routes
	// (120 requests per minute per IP covers 1 autosave/second plus slack).
	sessionLimiter := middleware.NewRateLimiter(120, time.Minute)

	// ─── 1. Candidate Group (JWT) ──────────────────────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(
		middleware.RequireCandidateJWT(tokenService),
		sessionLimiter.Middleware(),
	)
	{
		candidateAPI.GET("/rounds/:round_id/eligibility", handlers.Portal.GetEligibility)
		candidateAPI.POST("/rounds/:round_id/session", handlers.Portal.OpenSession)
		candidateAPI.GET("/rounds/:round_id/session", handlers.Portal.OpenSession)
		candidateAPI.POST("/rounds/:round_id/session/start", handlers.Portal.StartSession)
		candidateAPI.PUT("/rounds/:round_id/session/answers/:question_id", handlers.Portal.SaveAnswer)
		candidateAPI.POST("/rounds/:round_id/session/flags/:question_id", handlers.Portal.FlagQuestion)
		candidateAPI.POST("/rounds/:round_id/session/submit", handlers.Portal.SubmitSession)
		candidateAPI.POST("/rounds/:round_id/session/resubmit", handlers.Portal.ResubmitSession)
		candidateAPI.GET("/results/:result_id", handlers.Portal.GetResult)
	}

	// ─── 2. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(tokenService))
	{
		ws.GET("/candidate/rounds/:round_id/stream", handlers.WS.SessionStream)
	}

	return router
}
