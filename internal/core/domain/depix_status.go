package domain

import "strings"

// DepixStatus is the provider-side status of a Pix deposit.
type DepixStatus string

const (
	DepixStatusPending     DepixStatus = "pending"
	DepixStatusUnderReview DepixStatus = "under_review"
	DepixStatusDepixSent   DepixStatus = "depix_sent"
	DepixStatusError       DepixStatus = "error"
	DepixStatusRefunded    DepixStatus = "refunded"
	DepixStatusExpired     DepixStatus = "expired"
	DepixStatusCanceled    DepixStatus = "canceled"
)

// ParseDepixStatus parses a raw provider status string. Matching is
// case-insensitive with `-` normalized to `_`. An unrecognized string
// returns ok=false, never an error.
func ParseDepixStatus(raw string) (DepixStatus, bool) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch DepixStatus(s) {
	case DepixStatusPending,
		DepixStatusUnderReview,
		DepixStatusDepixSent,
		DepixStatusError,
		DepixStatusRefunded,
		DepixStatusExpired,
		DepixStatusCanceled:
		return DepixStatus(s), true
	}
	return "", false
}

// ReconcileState maps a provider status onto the invoice lifecycle.
// A nil result means no transition: the state is left untouched.
//
// SETTLED is absorbing. The provider delivers webhooks out of order and
// retries them, so a stale under_review arriving after depix_sent must
// never move a paid invoice backward. depix_sent is the sole success
// signal and settles unconditionally; canceled, error and refunded all
// collapse to INVALID with the exception marker set.
func ReconcileState(status DepixStatus, current InvoiceState) *InvoiceState {
	switch status {
	case DepixStatusPending:
		return nil
	case DepixStatusUnderReview:
		if current.IsSettled() {
			return nil
		}
		return &InvoiceState{Status: InvoiceStatusProcessing, Exception: ExceptionStatusNone}
	case DepixStatusDepixSent:
		return &InvoiceState{Status: InvoiceStatusSettled, Exception: ExceptionStatusNone}
	case DepixStatusExpired:
		if current.IsSettled() {
			return nil
		}
		return &InvoiceState{Status: InvoiceStatusExpired, Exception: ExceptionStatusNone}
	case DepixStatusCanceled, DepixStatusError, DepixStatusRefunded:
		if current.IsSettled() {
			return nil
		}
		return &InvoiceState{Status: InvoiceStatusInvalid, Exception: ExceptionStatusMarked}
	}
	return nil
}
