package handler

import (
	"pix-webhook-gateway/internal/adapter/http/dto"
	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/pkg/apperror"
	"pix-webhook-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettingsHandler manages webhook secret configuration.
type SettingsHandler struct {
	secretSvc ports.SecretService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(secretSvc ports.SecretService) *SettingsHandler {
	return &SettingsHandler{secretSvc: secretSvc}
}

// SecretStatus handles GET /api/v1/settings/secret. It reports only
// whether a secret exists for the scope; the value is never readable.
func (h *SettingsHandler) SecretStatus(c *gin.Context) {
	scope := c.Query("scope")
	if scope == "" {
		scope = domain.ScopeServer
	}

	configured, err := h.secretSvc.Configured(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SecretStatusResponse{Scope: scope, Configured: configured})
}

// RotateSecret handles POST /api/v1/settings/secret/rotate. The response
// is the only time the plaintext secret is ever surfaced.
func (h *SettingsHandler) RotateSecret(c *gin.Context) {
	var req dto.RotateSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	rotation, err := h.secretSvc.Rotate(c.Request.Context(), req.Scope, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.RotateSecretResponse{
		Scope:      rotation.Scope,
		Secret:     rotation.Secret,
		WebhookURL: rotation.WebhookURL,
	})
}
