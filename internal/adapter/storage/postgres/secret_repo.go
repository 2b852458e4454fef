package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SecretRepo implements ports.SecretRepository. Only hashes live here;
// the plaintext secret never reaches this layer.
type SecretRepo struct {
	pool Pool
}

// NewSecretRepo creates a new SecretRepo.
func NewSecretRepo(pool Pool) *SecretRepo {
	return &SecretRepo{pool: pool}
}

// GetHash returns the stored secret hash for a scope, or "" when the
// scope has no secret configured.
func (r *SecretRepo) GetHash(ctx context.Context, scope string) (string, error) {
	query := `SELECT secret_hash_hex FROM webhook_secrets WHERE scope = $1`

	var hash string
	err := r.pool.QueryRow(ctx, query, scope).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get secret hash: %w", err)
	}
	return hash, nil
}

// SaveHash upserts the secret hash for a scope, stamping rotated_at on
// replacement.
func (r *SecretRepo) SaveHash(ctx context.Context, scope, secretHashHex string) error {
	now := time.Now().UTC()
	query := `INSERT INTO webhook_secrets (scope, secret_hash_hex, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope) DO UPDATE
		SET secret_hash_hex = EXCLUDED.secret_hash_hex, rotated_at = $3`

	_, err := r.pool.Exec(ctx, query, scope, secretHashHex, now)
	if err != nil {
		return fmt.Errorf("save secret hash: %w", err)
	}
	return nil
}
