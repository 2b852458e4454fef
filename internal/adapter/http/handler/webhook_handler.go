package handler

import (
	"context"

	"pix-webhook-gateway/internal/adapter/http/dto"
	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/internal/metrics"
	"pix-webhook-gateway/internal/service"
	"pix-webhook-gateway/pkg/apperror"
	"pix-webhook-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WebhookHandler handles inbound provider deposit webhooks.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
	dispatcher *service.Dispatcher
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService, dispatcher *service.Dispatcher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc, dispatcher: dispatcher, log: log}
}

// StoreDeposit handles POST /depix/webhooks/deposit/:storeId.
func (h *WebhookHandler) StoreDeposit(c *gin.Context) {
	h.deposit(c, c.Param("storeId"))
}

// ServerDeposit handles POST /depix/webhooks/deposit (server-wide scope).
func (h *WebhookHandler) ServerDeposit(c *gin.Context) {
	h.deposit(c, domain.ScopeServer)
}

// deposit authenticates the caller synchronously, then hands the
// notification to the dispatcher and answers 200 without waiting: the
// provider's retry policy penalizes slow responses, and processing is
// tolerant of eventual completion.
func (h *WebhookHandler) deposit(c *gin.Context, scope string) {
	var req dto.DepositWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.WebhooksReceived.WithLabelValues("malformed").Inc()
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.webhookSvc.Authenticate(c.Request.Context(), scope, c.GetHeader("Authorization")); err != nil {
		var outcome string
		switch {
		case isStatus(err, 404):
			outcome = "unknown_scope"
		default:
			outcome = "unauthorized"
		}
		metrics.WebhooksReceived.WithLabelValues(outcome).Inc()
		response.Error(c, err)
		return
	}

	notification := req.ToNotification()
	if !h.dispatcher.Submit(func(ctx context.Context) {
		h.webhookSvc.Process(ctx, scope, notification)
	}) {
		// Dropped under saturation: still 200, the provider will retry.
		h.log.Warn().Str("scope", scope).Str("qr_id", req.QrID).Msg("webhook dropped, dispatcher saturated")
	}

	metrics.WebhooksReceived.WithLabelValues("accepted").Inc()
	response.Accepted(c)
}

// isStatus reports whether err is an AppError with the given HTTP status.
func isStatus(err error, status int) bool {
	appErr, ok := err.(*apperror.AppError)
	return ok && appErr.HTTPStatus == status
}
