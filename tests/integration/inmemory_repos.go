package integration

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
)

// In-memory repository implementations backing the integration stack.
// They mirror the semantics of the postgres layer closely enough for
// end-to-end tests: qrId lookup scoped by store, "" / nil for missing
// rows, newest-first capped listing.

type inMemoryInvoiceRepo struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
}

func newInMemoryInvoiceRepo() *inMemoryInvoiceRepo {
	return &inMemoryInvoiceRepo{invoices: make(map[string]*domain.Invoice)}
}

func (r *inMemoryInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *inMemoryInvoiceRepo) FindIDByQrID(ctx context.Context, storeID, qrID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invoices {
		if inv.StoreID != storeID || inv.Details.QrID == nil {
			continue
		}
		if *inv.Details.QrID == qrID {
			return inv.ID, nil
		}
	}
	return "", nil
}

func (r *inMemoryInvoiceRepo) GetDetails(ctx context.Context, invoiceID string) (*domain.PaymentDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	d := inv.Details
	return &d, nil
}

func (r *inMemoryInvoiceRepo) UpdateDetails(ctx context.Context, invoiceID string, details domain.PaymentDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil
	}
	inv.Details = details
	inv.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryInvoiceRepo) GetState(ctx context.Context, invoiceID string) (*domain.InvoiceState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	s := inv.State
	return &s, nil
}

func (r *inMemoryInvoiceRepo) UpdateState(ctx context.Context, invoiceID string, state domain.InvoiceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil
	}
	inv.State = state
	inv.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryInvoiceRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.TransactionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.TransactionSummary
	for _, inv := range r.invoices {
		if inv.StoreID != params.StoreID || inv.Details.QrID == nil {
			continue
		}
		raw := inv.Details.RawStatus()
		if params.Status != nil && raw != *params.Status {
			continue
		}
		if params.Search != nil && !matchesSearch(inv, *params.Search) {
			continue
		}
		if params.From != nil && inv.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && inv.CreatedAt.After(*params.To) {
			continue
		}
		s := domain.TransactionSummary{
			InvoiceID: inv.ID,
			Created:   inv.CreatedAt,
			QrID:      *inv.Details.QrID,
			StatusRaw: raw,
		}
		if inv.Details.DepixAddress != nil {
			s.DepixAddress = *inv.Details.DepixAddress
		}
		s.ValueInCents = inv.Details.ValueInCents
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	if len(out) > ports.TransactionListLimit {
		out = out[:ports.TransactionListLimit]
	}
	return out, nil
}

func matchesSearch(inv *domain.Invoice, needle string) bool {
	needle = strings.ToLower(needle)
	if strings.Contains(strings.ToLower(inv.ID), needle) {
		return true
	}
	if inv.Details.QrID != nil && strings.Contains(strings.ToLower(*inv.Details.QrID), needle) {
		return true
	}
	if inv.Details.DepixAddress != nil && strings.Contains(strings.ToLower(*inv.Details.DepixAddress), needle) {
		return true
	}
	return false
}

type inMemorySecretRepo struct {
	mu     sync.RWMutex
	hashes map[string]string
}

func newInMemorySecretRepo() *inMemorySecretRepo {
	return &inMemorySecretRepo{hashes: make(map[string]string)}
}

func (r *inMemorySecretRepo) GetHash(ctx context.Context, scope string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hashes[scope], nil
}

func (r *inMemorySecretRepo) SaveHash(ctx context.Context, scope, secretHashHex string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes[scope] = secretHashHex
	return nil
}

// countingPublisher records published state changes for assertions.
type countingPublisher struct {
	mu     sync.Mutex
	events []domain.InvoiceStateChanged
}

func (p *countingPublisher) PublishStateChange(ctx context.Context, event domain.InvoiceStateChanged) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *countingPublisher) published() []domain.InvoiceStateChanged {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.InvoiceStateChanged, len(p.events))
	copy(out, p.events)
	return out
}
