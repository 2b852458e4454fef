package service

import (
	"context"

	"pix-webhook-gateway/internal/core/domain"

	"github.com/rs/zerolog"
)

// LogEventPublisher is the default ports.EventPublisher: it emits each
// state change as a structured log line. Downstream consumers (host
// commerce system, notification fan-out) plug in their own implementation.
type LogEventPublisher struct {
	log zerolog.Logger
}

// NewLogEventPublisher creates a logging event publisher.
func NewLogEventPublisher(log zerolog.Logger) *LogEventPublisher {
	return &LogEventPublisher{log: log}
}

// PublishStateChange logs the invoice state change.
func (p *LogEventPublisher) PublishStateChange(_ context.Context, ev domain.InvoiceStateChanged) {
	p.log.Info().
		Str("invoice_id", ev.InvoiceID).
		Str("store_id", ev.StoreID).
		Str("qr_id", ev.QrID).
		Str("old_status", string(ev.OldState.Status)).
		Str("new_status", string(ev.NewState.Status)).
		Str("exception", string(ev.NewState.Exception)).
		Msg("invoice state changed")
}
