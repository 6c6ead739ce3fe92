package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hirestack/interview-backend/internal/bank"
	"github.com/hirestack/interview-backend/internal/config"
	"github.com/hirestack/interview-backend/internal/database"
	"github.com/hirestack/interview-backend/internal/engine"
	"github.com/hirestack/interview-backend/internal/gate"
	"github.com/hirestack/interview-backend/internal/handler"
	"github.com/hirestack/interview-backend/internal/logger"
	"github.com/hirestack/interview-backend/internal/repository"
	"github.com/hirestack/interview-backend/internal/router"
	"github.com/hirestack/interview-backend/internal/service"
	"github.com/hirestack/interview-backend/internal/store"
	"github.com/hirestack/interview-backend/internal/validator"
	ws "github.com/hirestack/interview-backend/internal/websocket"
	"github.com/hirestack/interview-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Interview Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	roundRepo := repository.NewRoundRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	tokenService := service.NewTokenService(cfg)
	resultService := service.NewResultService(resultRepo, progressRepo, rdb, log)
	progressService := service.NewProgressService(progressRepo, log)
	questionBank := bank.NewQuestionBank(roundRepo, questionRepo, rdb, log)
	cooldownGate := gate.NewCooldownGate(resultRepo, settingRepo, cfg.FreezingPeriodDays, log)

	// ─── Initialize Session Engine ────────────────────────────────────
	sessionStore := store.NewRedisStore(rdb)
	sessionEngine := engine.NewManager(sessionStore, roundRepo, questionBank, resultService, cooldownGate, progressService, log)

	hub := ws.NewHub()
	sessionEngine.OnTick = hub.Publish

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Portal: handler.NewPortalHandler(sessionEngine, cooldownGate, resultService),
		WS:     handler.NewWSHandler(sessionEngine, hub, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	evaluationWorker := worker.NewEvaluationWorker(resultRepo, rdb, log)
	sweeperWorker := worker.NewSweeperWorker(sessionEngine, cfg.SweepInterval, log)

	go autosaveWorker.Start(workerCtx)
	go evaluationWorker.Start(workerCtx)
	go sweeperWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every round's question bank into Redis BEFORE accepting
	// traffic, so session opens never race a lazy load.
	if err := questionBank.PrewarmAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokenService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop session clocks; live sessions stay in Redis and are
	// rehydrated on the next boot.
	sessionEngine.Shutdown()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
