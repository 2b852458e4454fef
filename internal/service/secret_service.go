package service

import (
	"context"
	"fmt"
	"strings"

	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// SecretServiceImpl implements ports.SecretService. The plaintext secret
// exists only in the SecretRotation returned to the caller; from then on
// only the hash is recoverable.
type SecretServiceImpl struct {
	secretRepo    ports.SecretRepository
	publicBaseURL string
	log           zerolog.Logger
}

// NewSecretService creates a new SecretServiceImpl.
func NewSecretService(secretRepo ports.SecretRepository, publicBaseURL string, log zerolog.Logger) *SecretServiceImpl {
	return &SecretServiceImpl{
		secretRepo:    secretRepo,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// Configured reports whether a secret hash exists for the scope.
func (s *SecretServiceImpl) Configured(ctx context.Context, scope string) (bool, error) {
	hash, err := s.secretRepo.GetHash(ctx, scope)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("get secret hash: %w", err))
	}
	return hash != "", nil
}

// Rotate generates a fresh secret when none exists for the scope, or
// unconditionally when force is set. The returned rotation carries the
// one-shot plaintext; nil means the existing secret was kept.
func (s *SecretServiceImpl) Rotate(ctx context.Context, scope string, force bool) (*ports.SecretRotation, error) {
	existing, err := s.secretRepo.GetHash(ctx, scope)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get secret hash: %w", err))
	}
	if existing != "" && !force {
		return nil, nil
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	if err := s.secretRepo.SaveHash(ctx, scope, ComputeSecretHash(secret)); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("save secret hash: %w", err))
	}

	s.log.Info().Str("scope", scope).Bool("forced", force).Msg("webhook secret rotated")

	return &ports.SecretRotation{
		Scope:      scope,
		Secret:     secret,
		WebhookURL: s.webhookURL(scope),
	}, nil
}

// webhookURL builds the endpoint the provider must be pointed at for the
// given scope.
func (s *SecretServiceImpl) webhookURL(scope string) string {
	if scope == domain.ScopeServer {
		return s.publicBaseURL + "/depix/webhooks/deposit"
	}
	return s.publicBaseURL + "/depix/webhooks/deposit/" + scope
}
