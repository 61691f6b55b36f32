package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/database"
	"github.com/academie/admission-backend/internal/handler"
	"github.com/academie/admission-backend/internal/logger"
	"github.com/academie/admission-backend/internal/middleware"
	"github.com/academie/admission-backend/internal/repository"
	"github.com/academie/admission-backend/internal/router"
	"github.com/academie/admission-backend/internal/service"
	"github.com/academie/admission-backend/internal/validator"
	"github.com/academie/admission-backend/internal/worker"
	"github.com/rs/zerolog"
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
		Bool("enforce_time_limit", cfg.QuizEnforceTimeLimit).
		Msg("Starting admission backend")

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

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
	txManager := repository.NewTxManager(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	candidateRepo := repository.NewSessionCandidateRepository(pool)
	interviewRepo := repository.NewInterviewRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	attemptRepo := repository.NewQuizAttemptRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	events := service.NewRedisEventPublisher(rdb, log)
	audit := service.NewRedisAuditRecorder(rdb, log)
	gate := service.InterviewGate{}

	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	candidateService := service.NewCandidateService(txManager, sessionRepo, candidateRepo, interviewRepo,
		quizRepo, attemptRepo, gate, events, audit, log)
	interviewService := service.NewInterviewService(txManager, candidateRepo, interviewRepo, candidateService, audit, log)
	attemptService := service.NewQuizAttemptService(txManager, quizRepo, attemptRepo, candidateRepo, interviewRepo,
		candidateService, gate, events, audit, service.AttemptPolicy{
			EnforceTimeLimit: cfg.QuizEnforceTimeLimit,
			SubmitGrace:      cfg.QuizSubmitGrace,
		}, log)
	monitorService := service.NewMonitorService(sessionRepo, monitorRepo, quizRepo)
	auditService := service.NewAuditService(auditRepo)
	sessionService := service.NewSessionService(sessionRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Candidate: handler.NewCandidateHandler(candidateService, interviewService),
		Quiz:      handler.NewQuizHandler(attemptService),
		Staff:     handler.NewStaffHandler(candidateService, interviewService, auditService),
		Session:   handler.NewSessionHandler(sessionService),
		Monitor:   handler.NewMonitorHandler(rdb, monitorService, log),
		WS:        handler.NewWSHandler(attemptService, log, cfg.AllowedOrigins),
		Health:    handler.NewHealthHandler(pool, rdb).Check,
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	auditWorker := worker.NewAuditWorker(auditRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		auditWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(rdb, cfg.AutosaveRateLimit, time.Minute, log)
	r := router.SetupRouter(tokenService, limiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 1. Stop accepting new HTTP requests. SSE and WebSocket streams end with their request context.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the audit worker once it has drained its queue.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
