package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// InvoiceRepo implements ports.InvoiceRepository over a JSONB details
// column, mirroring how the host commerce system stores payment prompts.
type InvoiceRepo struct {
	pool Pool
}

// NewInvoiceRepo creates a new InvoiceRepo.
func NewInvoiceRepo(pool Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

// Create inserts a new invoice with its initial detail record.
func (r *InvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	details, err := json.Marshal(inv.Details)
	if err != nil {
		return fmt.Errorf("marshal invoice details: %w", err)
	}

	query := `INSERT INTO invoices (id, store_id, status, exception_status, details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.pool.Exec(ctx, query,
		inv.ID, inv.StoreID, inv.State.Status, inv.State.Exception,
		details, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// FindIDByQrID resolves an invoice id by its provider-assigned qrId
// within a store scope. Zero matches is a normal outcome (replayed or
// unknown notifications) and returns "", nil.
func (r *InvoiceRepo) FindIDByQrID(ctx context.Context, storeID, qrID string) (string, error) {
	query := `SELECT id FROM invoices
		WHERE store_id = $1 AND details->>'qrId' = $2
		LIMIT 1`

	var id string
	err := r.pool.QueryRow(ctx, query, storeID, qrID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find invoice by qrId: %w", err)
	}
	return id, nil
}

// GetDetails loads the detail record for an invoice. Returns nil, nil
// when the invoice does not exist.
func (r *InvoiceRepo) GetDetails(ctx context.Context, invoiceID string) (*domain.PaymentDetails, error) {
	query := `SELECT details FROM invoices WHERE id = $1`

	var raw []byte
	err := r.pool.QueryRow(ctx, query, invoiceID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice details: %w", err)
	}

	var details domain.PaymentDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, fmt.Errorf("unmarshal invoice details: %w", err)
	}
	return &details, nil
}

// UpdateDetails persists the merged detail record.
func (r *InvoiceRepo) UpdateDetails(ctx context.Context, invoiceID string, details domain.PaymentDetails) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal invoice details: %w", err)
	}

	query := `UPDATE invoices SET details = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, raw, time.Now().UTC(), invoiceID)
	if err != nil {
		return fmt.Errorf("update invoice details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice not found: %s", invoiceID)
	}
	return nil
}

// GetState loads the lifecycle state. Returns nil, nil when the invoice
// does not exist.
func (r *InvoiceRepo) GetState(ctx context.Context, invoiceID string) (*domain.InvoiceState, error) {
	query := `SELECT status, exception_status FROM invoices WHERE id = $1`

	var state domain.InvoiceState
	err := r.pool.QueryRow(ctx, query, invoiceID).Scan(&state.Status, &state.Exception)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice state: %w", err)
	}
	return &state, nil
}

// UpdateState persists a lifecycle transition.
func (r *InvoiceRepo) UpdateState(ctx context.Context, invoiceID string, state domain.InvoiceState) error {
	query := `UPDATE invoices SET status = $1, exception_status = $2, updated_at = $3 WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, state.Status, state.Exception, time.Now().UTC(), invoiceID)
	if err != nil {
		return fmt.Errorf("update invoice state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice not found: %s", invoiceID)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards in user input so the operator
// search stays a plain substring match.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// List fetches transaction summaries for the operator listing: optional
// exact raw-status match, case-insensitive substring search over invoice
// id / qrId / depixAddress, inclusive created bounds, newest first,
// capped at ports.TransactionListLimit rows.
func (r *InvoiceRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.TransactionSummary, error) {
	conditions := []string{"store_id = $1", "details->>'qrId' IS NOT NULL"}
	args := []any{params.StoreID}
	argIdx := 2

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("details->>'status' = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Search != nil {
		conditions = append(conditions, fmt.Sprintf(`(
			id ILIKE '%%' || $%d || '%%'
			OR details->>'qrId' ILIKE '%%' || $%d || '%%'
			OR details->>'depixAddress' ILIKE '%%' || $%d || '%%'
		)`, argIdx, argIdx, argIdx))
		args = append(args, escapeLike(*params.Search))
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT
		id,
		created_at,
		details->>'qrId' AS qr_id,
		COALESCE(details->>'depixAddress', '') AS depix_address,
		NULLIF(details->>'valueInCents', '')::bigint AS value_in_cents,
		COALESCE(details->>'status', 'pending') AS status_raw
		FROM invoices
		WHERE %s
		ORDER BY created_at DESC
		LIMIT %d`, strings.Join(conditions, " AND "), ports.TransactionListLimit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var summaries []domain.TransactionSummary
	for rows.Next() {
		var s domain.TransactionSummary
		err := rows.Scan(&s.InvoiceID, &s.Created, &s.QrID, &s.DepixAddress, &s.ValueInCents, &s.StatusRaw)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return summaries, nil
}
