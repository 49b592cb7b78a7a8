package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/database"
	"github.com/stemsi/scholardist/internal/engine"
	"github.com/stemsi/scholardist/internal/handler"
	"github.com/stemsi/scholardist/internal/logger"
	"github.com/stemsi/scholardist/internal/middleware"
	"github.com/stemsi/scholardist/internal/repository"
	"github.com/stemsi/scholardist/internal/router"
	"github.com/stemsi/scholardist/internal/service"
	"github.com/stemsi/scholardist/internal/validator"
	"github.com/stemsi/scholardist/internal/worker"
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
		Msg("Starting scholarship distribution server")

	if cfg.AdminIdentity == "" {
		log.Fatal().Msg("ADMIN_IDENTITY must be set")
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
	ledgerRepo := repository.NewLedgerRepository(pool)
	runRepo := repository.NewSelectionRunRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET must be set")
	}
	eng, err := engine.New(ledgerRepo, cfg.AdminIdentity, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid ADMIN_IDENTITY")
	}
	scholarships := service.NewScholarshipService(eng, runRepo, rdb, cfg.CacheTTL, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(scholarships),
		Program:     handler.NewProgramHandler(scholarships, log),
		Application: handler.NewApplicationHandler(scholarships, log),
		Selection:   handler.NewSelectionHandler(scholarships, log),
		Feed:        handler.NewFeedHandler(rdb, scholarships, log, cfg.AllowedOrigins),
	}
	applyLimiter := middleware.NewRateLimiter(rdb, "apply", cfg.ApplyRateLimit, time.Minute, log)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	runWorker := worker.NewRunHistoryWorker(runRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		runWorker.Start(workerCtx)
	}()

	if cfg.SelectionCron != "" {
		scheduler, err := worker.NewSelectionScheduler(scholarships, cfg.SelectionCron, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid SELECTION_CRON")
		}
		workers.Add(1)
		go func() {
			defer workers.Done()
			scheduler.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, scholarships, applyLimiter, handlers, cfg)

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

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers; the run history worker flushes its batch.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
