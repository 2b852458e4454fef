package domain

import (
	"time"
)

// InvoiceStatus represents the settlement lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "PENDING"
	InvoiceStatusProcessing InvoiceStatus = "PROCESSING"
	InvoiceStatusSettled    InvoiceStatus = "SETTLED"
	InvoiceStatusExpired    InvoiceStatus = "EXPIRED"
	InvoiceStatusInvalid    InvoiceStatus = "INVALID"
)

// ExceptionStatus is a secondary marker on the invoice state.
type ExceptionStatus string

const (
	ExceptionStatusNone   ExceptionStatus = "NONE"
	ExceptionStatusMarked ExceptionStatus = "MARKED"
)

// InvoiceState is the full lifecycle state of an invoice.
type InvoiceState struct {
	Status    InvoiceStatus   `json:"status"`
	Exception ExceptionStatus `json:"exception"`
}

// IsSettled returns true if the invoice has reached the terminal paid state.
// Once settled, the reconciliation engine never moves the invoice again.
func (s InvoiceState) IsSettled() bool {
	return s.Status == InvoiceStatusSettled
}

// Invoice is a locally tracked payment attempt. Details is the open JSON
// object persisted per invoice and mutated by each accepted webhook.
type Invoice struct {
	ID        string         `json:"id"`
	StoreID   string         `json:"store_id"`
	State     InvoiceState   `json:"state"`
	Details   PaymentDetails `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TransactionSummary is one row of the operator-facing transaction listing.
type TransactionSummary struct {
	InvoiceID    string       `json:"invoice_id"`
	Created      time.Time    `json:"created"`
	QrID         string       `json:"qr_id"`
	DepixAddress string       `json:"depix_address"`
	ValueInCents *int64       `json:"value_in_cents"`
	StatusRaw    string       `json:"status_raw"`
	Status       *DepixStatus `json:"status"` // nil when the raw string does not parse
}

// InvoiceStateChanged is published once per webhook call that produced
// a lifecycle transition.
type InvoiceStateChanged struct {
	InvoiceID string       `json:"invoice_id"`
	StoreID   string       `json:"store_id"`
	QrID      string       `json:"qr_id"`
	OldState  InvoiceState `json:"old_state"`
	NewState  InvoiceState `json:"new_state"`
	At        time.Time    `json:"at"`
}
