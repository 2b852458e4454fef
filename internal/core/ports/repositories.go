package ports

import (
	"context"
	"time"

	"pix-webhook-gateway/internal/core/domain"
)

// InvoiceRepository defines persistence operations for invoices and their
// JSON detail records.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	// FindIDByQrID resolves the invoice id for a provider-assigned qrId
	// within a store scope. Returns "" (not an error) when no row matches.
	FindIDByQrID(ctx context.Context, storeID, qrID string) (string, error)
	GetDetails(ctx context.Context, invoiceID string) (*domain.PaymentDetails, error)
	UpdateDetails(ctx context.Context, invoiceID string, details domain.PaymentDetails) error
	GetState(ctx context.Context, invoiceID string) (*domain.InvoiceState, error)
	UpdateState(ctx context.Context, invoiceID string, state domain.InvoiceState) error
	// List returns operator-facing transaction summaries, newest first,
	// capped at TransactionListLimit rows.
	List(ctx context.Context, params TransactionListParams) ([]domain.TransactionSummary, error)
}

// TransactionListLimit bounds the listing response size. Callers needing
// more must narrow the filter.
const TransactionListLimit = 200

// TransactionListParams holds the optional filters for listing.
type TransactionListParams struct {
	StoreID string
	Status  *string // exact match on the raw provider status string
	Search  *string // case-insensitive substring over invoice id, qrId, depixAddress
	From    *time.Time
	To      *time.Time
}

// SecretRepository defines persistence for webhook secret hashes, keyed
// by scope (store id or domain.ScopeServer).
type SecretRepository interface {
	// GetHash returns the stored hash for a scope, or "" when none exists.
	GetHash(ctx context.Context, scope string) (string, error)
	SaveHash(ctx context.Context, scope, secretHashHex string) error
}

// DedupCache remembers recently processed notification fingerprints so
// provider redeliveries can be observed. Best effort: a cache failure
// never blocks processing.
type DedupCache interface {
	// Seen marks the fingerprint and reports whether it was already present.
	Seen(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error)
}
