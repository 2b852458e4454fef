package service

import (
	"context"
	"errors"
	"testing"

	"pix-webhook-gateway/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretService_RotateFirstTime(t *testing.T) {
	repo := newFakeSecretRepo()
	svc := NewSecretService(repo, "https://pay.example.com", zerolog.Nop())

	rotation, err := svc.Rotate(context.Background(), domain.ScopeServer, false)
	require.NoError(t, err)
	require.NotNil(t, rotation)

	assert.Equal(t, domain.ScopeServer, rotation.Scope)
	assert.Len(t, rotation.Secret, 64)
	assert.Equal(t, "https://pay.example.com/depix/webhooks/deposit", rotation.WebhookURL)

	// Only the hash is persisted, never the plaintext.
	stored, err := repo.GetHash(context.Background(), domain.ScopeServer)
	require.NoError(t, err)
	assert.Equal(t, ComputeSecretHash(rotation.Secret), stored)
	assert.NotEqual(t, rotation.Secret, stored)
}

func TestSecretService_RotateKeepsExistingWithoutForce(t *testing.T) {
	repo := newFakeSecretRepo()
	svc := NewSecretService(repo, "https://pay.example.com", zerolog.Nop())

	first, err := svc.Rotate(context.Background(), "store-1", false)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Rotate(context.Background(), "store-1", false)
	require.NoError(t, err)
	assert.Nil(t, second, "existing secret must be kept without force")

	stored, _ := repo.GetHash(context.Background(), "store-1")
	assert.Equal(t, ComputeSecretHash(first.Secret), stored)
}

func TestSecretService_ForceRotateReplacesSecret(t *testing.T) {
	repo := newFakeSecretRepo()
	svc := NewSecretService(repo, "https://pay.example.com", zerolog.Nop())

	first, err := svc.Rotate(context.Background(), "store-1", false)
	require.NoError(t, err)

	second, err := svc.Rotate(context.Background(), "store-1", true)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.NotEqual(t, first.Secret, second.Secret)

	// The old secret no longer authenticates.
	stored, _ := repo.GetHash(context.Background(), "store-1")
	v := NewBasicSecretVerifier()
	assert.False(t, v.Verify(stored, basicLiteral(first.Secret)))
	assert.True(t, v.Verify(stored, basicLiteral(second.Secret)))
}

func TestSecretService_StoreScopedWebhookURL(t *testing.T) {
	repo := newFakeSecretRepo()
	svc := NewSecretService(repo, "https://pay.example.com/", zerolog.Nop())

	rotation, err := svc.Rotate(context.Background(), "store-42", false)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/depix/webhooks/deposit/store-42", rotation.WebhookURL)
}

func TestSecretService_Configured(t *testing.T) {
	repo := newFakeSecretRepo()
	svc := NewSecretService(repo, "https://pay.example.com", zerolog.Nop())

	configured, err := svc.Configured(context.Background(), "store-1")
	require.NoError(t, err)
	assert.False(t, configured)

	_, err = svc.Rotate(context.Background(), "store-1", false)
	require.NoError(t, err)

	configured, err = svc.Configured(context.Background(), "store-1")
	require.NoError(t, err)
	assert.True(t, configured)
}

func TestSecretService_RepoErrorSurfaces(t *testing.T) {
	repo := newFakeSecretRepo()
	repo.err = errors.New("db down")
	svc := NewSecretService(repo, "https://pay.example.com", zerolog.Nop())

	_, err := svc.Configured(context.Background(), "store-1")
	assert.Error(t, err)

	_, err = svc.Rotate(context.Background(), "store-1", true)
	assert.Error(t, err)
}
