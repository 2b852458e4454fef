package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pix-webhook-gateway/config"
	httpHandler "pix-webhook-gateway/internal/adapter/http/handler"
	pgStorage "pix-webhook-gateway/internal/adapter/storage/postgres"
	redisStorage "pix-webhook-gateway/internal/adapter/storage/redis"
	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/internal/service"
	"pix-webhook-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Pix Webhook Gateway")

	ctx := context.Background()

	// Run schema migrations before opening the pool
	if cfg.Database.Migrate {
		if err := pgStorage.Migrate(cfg.Database, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	invoiceRepo := pgStorage.NewInvoiceRepo(pool)
	secretRepo := pgStorage.NewSecretRepo(pool)

	// Initialize Redis stores
	dedupCache := redisStorage.NewDedupCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	verifier := service.NewBasicSecretVerifier()
	tokenSvc := service.NewJWTTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	publisher := service.NewLogEventPublisher(log)

	// Initialize business services
	authSvc := service.NewAuthService(cfg.Auth.OperatorUsername, cfg.Auth.OperatorPasswordHash, tokenSvc)
	webhookSvc := service.NewWebhookService(invoiceRepo, secretRepo, verifier, publisher, dedupCache, cfg.Webhook.DedupTTL, log)
	secretSvc := service.NewSecretService(secretRepo, cfg.Server.PublicBaseURL, log)
	reportingSvc := service.NewReportingService(invoiceRepo)

	// Detached processing pipeline for accepted webhooks
	dispatcher := service.NewDispatcher(cfg.Webhook.Workers, cfg.Webhook.QueueSize, cfg.Webhook.TaskTimeout, log)

	// Generate the server-wide secret on first boot so the webhook can be
	// registered with the provider before any per-store setup happens.
	if rotation, err := secretSvc.Rotate(ctx, domain.ScopeServer, false); err != nil {
		log.Warn().Err(err).Msg("Failed to initialize server webhook secret")
	} else if rotation != nil {
		log.Info().
			Str("webhook_url", rotation.WebhookURL).
			Str("secret", rotation.Secret).
			Msg("Server webhook secret generated; it will not be shown again")
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WebhookSvc:     webhookSvc,
		Dispatcher:     dispatcher,
		AuthSvc:        authSvc,
		ReportingSvc:   reportingSvc,
		SecretSvc:      secretSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain queued webhook work before exit
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Dispatcher forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
