package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/internal/metrics"
	"pix-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// WebhookServiceImpl implements ports.WebhookService: authentication on
// the request path, reconciliation on the detached path.
type WebhookServiceImpl struct {
	invoiceRepo ports.InvoiceRepository
	secretRepo  ports.SecretRepository
	verifier    ports.SecretVerifier
	publisher   ports.EventPublisher
	dedup       ports.DedupCache // nil = dedup observation disabled
	dedupTTL    time.Duration
	log         zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl.
func NewWebhookService(
	invoiceRepo ports.InvoiceRepository,
	secretRepo ports.SecretRepository,
	verifier ports.SecretVerifier,
	publisher ports.EventPublisher,
	dedup ports.DedupCache,
	dedupTTL time.Duration,
	log zerolog.Logger,
) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		invoiceRepo: invoiceRepo,
		secretRepo:  secretRepo,
		verifier:    verifier,
		publisher:   publisher,
		dedup:       dedup,
		dedupTTL:    dedupTTL,
		log:         log,
	}
}

// Authenticate verifies the webhook caller's Basic credential against the
// hash stored for the scope. Runs synchronously so unauthenticated
// callers are rejected before any processing is queued.
func (s *WebhookServiceImpl) Authenticate(ctx context.Context, scope, authorizationHeader string) error {
	hash, err := s.secretRepo.GetHash(ctx, scope)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if hash == "" {
		return apperror.ErrScopeNotConfigured()
	}
	if !s.verifier.Verify(hash, authorizationHeader) {
		metrics.WebhooksUnauthorized.Inc()
		return apperror.ErrWebhookUnauthorized()
	}
	return nil
}

// Process reconciles one notification against the local invoice record.
// It never returns an error: the HTTP layer has already answered 200 by
// the time this runs, so every failure is logged and swallowed here.
// Replays are safe: the merge is idempotent and a no-op transition is
// never applied or published.
func (s *WebhookServiceImpl) Process(ctx context.Context, scope string, n domain.DepositNotification) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).
				Str("scope", scope).Str("qr_id", n.QrID).
				Msg("webhook processing panicked")
		}
	}()

	log := s.log.With().Str("scope", scope).Str("qr_id", n.QrID).Logger()

	s.observeReplay(ctx, scope, n, log)

	invoiceID, err := s.invoiceRepo.FindIDByQrID(ctx, scope, n.QrID)
	if err != nil {
		log.Error().Err(err).Msg("webhook: invoice lookup failed")
		return
	}
	if invoiceID == "" {
		log.Warn().Msg("webhook: no invoice for qrId")
		return
	}

	details, err := s.invoiceRepo.GetDetails(ctx, invoiceID)
	if err != nil {
		log.Error().Err(err).Str("invoice_id", invoiceID).Msg("webhook: details load failed")
		return
	}
	if details == nil {
		log.Warn().Str("invoice_id", invoiceID).Msg("webhook: invoice has no detail record")
		return
	}

	merged := domain.MergeDetails(details, n)
	if err := s.invoiceRepo.UpdateDetails(ctx, invoiceID, merged); err != nil {
		log.Error().Err(err).Str("invoice_id", invoiceID).Msg("webhook: details persist failed")
		return
	}

	status, ok := domain.ParseDepixStatus(deref(n.Status))
	if !ok {
		// Unknown or absent status is informational only, not an error.
		metrics.WebhooksProcessed.Inc()
		log.Info().Str("invoice_id", invoiceID).Msg("webhook: details updated, no status transition")
		return
	}

	s.applyTransition(ctx, scope, invoiceID, n.QrID, status, log)
	metrics.WebhooksProcessed.Inc()
}

// applyTransition runs the state machine and persists + publishes the
// result when it yields a transition that actually changes the state.
func (s *WebhookServiceImpl) applyTransition(ctx context.Context, scope, invoiceID, qrID string, status domain.DepixStatus, log zerolog.Logger) {
	current, err := s.invoiceRepo.GetState(ctx, invoiceID)
	if err != nil {
		log.Error().Err(err).Str("invoice_id", invoiceID).Msg("webhook: state load failed")
		return
	}
	if current == nil {
		log.Warn().Str("invoice_id", invoiceID).Msg("webhook: invoice state missing")
		return
	}

	next := domain.ReconcileState(status, *current)
	if next == nil || *next == *current {
		return
	}

	if err := s.invoiceRepo.UpdateState(ctx, invoiceID, *next); err != nil {
		log.Error().Err(err).Str("invoice_id", invoiceID).Msg("webhook: state persist failed")
		return
	}

	metrics.InvoiceTransitions.WithLabelValues(string(next.Status)).Inc()

	s.publisher.PublishStateChange(ctx, domain.InvoiceStateChanged{
		InvoiceID: invoiceID,
		StoreID:   scope,
		QrID:      qrID,
		OldState:  *current,
		NewState:  *next,
		At:        time.Now().UTC(),
	})

	log.Info().
		Str("invoice_id", invoiceID).
		Str("from", string(current.Status)).
		Str("to", string(next.Status)).
		Msg("webhook: invoice state updated")
}

// observeReplay records the notification fingerprint in the dedup cache.
// Redeliveries are expected from the provider and processed anyway (the
// pipeline is idempotent); the cache only makes them visible.
func (s *WebhookServiceImpl) observeReplay(ctx context.Context, scope string, n domain.DepositNotification, log zerolog.Logger) {
	if s.dedup == nil {
		return
	}
	seen, err := s.dedup.Seen(ctx, notificationFingerprint(scope, n), s.dedupTTL)
	if err != nil {
		log.Debug().Err(err).Msg("webhook: dedup cache unavailable")
		return
	}
	if seen {
		metrics.WebhooksReplayed.Inc()
		log.Info().Msg("webhook: duplicate delivery observed")
	}
}

// notificationFingerprint hashes scope + canonical body for dedup keys.
func notificationFingerprint(scope string, n domain.DepositNotification) string {
	body, _ := json.Marshal(n)
	sum := sha256.Sum256(append([]byte(scope+"|"), body...))
	return hex.EncodeToString(sum[:])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
