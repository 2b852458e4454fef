package handler

import (
	"pix-webhook-gateway/internal/adapter/http/middleware"
	redisStore "pix-webhook-gateway/internal/adapter/storage/redis"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/internal/metrics"
	"pix-webhook-gateway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WebhookSvc     ports.WebhookService
	Dispatcher     *service.Dispatcher
	AuthSvc        ports.AuthService
	ReportingSvc   ports.ReportingService
	SecretSvc      ports.SecretService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	r.GET("/metrics", metrics.Handler())

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// --- Provider-facing webhooks (HTTP Basic, verified in the handler) ---
	webhookHandler := NewWebhookHandler(deps.WebhookSvc, deps.Dispatcher, deps.Logger)
	webhooks := r.Group("/depix/webhooks", rl("webhooks"))
	{
		webhooks.POST("/deposit", webhookHandler.ServerDeposit)
		webhooks.POST("/deposit/:storeId", webhookHandler.StoreDeposit)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes (operator API) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	transactionsHandler := NewTransactionsHandler(deps.ReportingSvc)
	settingsHandler := NewSettingsHandler(deps.SecretSvc)

	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", rl("operator"), transactionsHandler.List)
	}

	settings := v1.Group("/settings", jwtAuth)
	{
		settings.GET("/secret", rl("operator"), settingsHandler.SecretStatus)
		settings.POST("/secret/rotate", rl("operator"), settingsHandler.RotateSecret)
	}

	return r
}
