package ports

import (
	"context"
	"time"

	"pix-webhook-gateway/internal/core/domain"
)

// SecretVerifier authenticates an inbound webhook call against a stored
// secret hash. Pure function over the header and the hash.
type SecretVerifier interface {
	// Verify reports whether the Authorization header value carries a
	// credential whose SHA-256 hash equals storedHashHex. Fails closed on
	// an empty hash or a missing/malformed header.
	Verify(storedHashHex, authorizationHeader string) bool
}

// WebhookService is the ingestion engine for provider deposit webhooks.
type WebhookService interface {
	// Authenticate runs synchronously on the request path. It returns an
	// AppError (401/404) on failure and nil when the caller is trusted.
	Authenticate(ctx context.Context, scope, authorizationHeader string) error
	// Process reconciles one notification against the local invoice.
	// It never returns an error: every failure is logged and swallowed so
	// nothing propagates across the detached-task boundary.
	Process(ctx context.Context, scope string, notification domain.DepositNotification)
}

// SecretRotation is the result of generating or rotating a webhook
// secret. Secret is the plaintext, surfaced exactly once.
type SecretRotation struct {
	Scope      string
	Secret     string
	WebhookURL string
}

// SecretService manages one-shot webhook secrets per scope.
type SecretService interface {
	// Configured reports whether a secret hash exists for the scope.
	Configured(ctx context.Context, scope string) (bool, error)
	// Rotate generates a fresh secret for the scope, persists its hash and
	// returns the plaintext. When force is false an existing secret is kept
	// and nil is returned.
	Rotate(ctx context.Context, scope string, force bool) (*SecretRotation, error)
}

// ReportingService serves the operator-facing transaction listing.
type ReportingService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.TransactionSummary, error)
}

// AuthService authenticates operators for the management API.
type AuthService interface {
	// Login verifies credentials and returns a session token with expiry.
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

// TokenService handles operator session tokens.
type TokenService interface {
	Generate(username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed session claims.
type TokenClaims struct {
	Username string
}

// EventPublisher fans out invoice state changes to downstream listeners.
type EventPublisher interface {
	PublishStateChange(ctx context.Context, event domain.InvoiceStateChanged)
}
