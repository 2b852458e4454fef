package handler

import (
	"time"

	"pix-webhook-gateway/internal/adapter/http/dto"
	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/pkg/apperror"
	"pix-webhook-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionsHandler serves the operator-facing transaction listing.
type TransactionsHandler struct {
	reportingSvc ports.ReportingService
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(reportingSvc ports.ReportingService) *TransactionsHandler {
	return &TransactionsHandler{reportingSvc: reportingSvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionsHandler) List(c *gin.Context) {
	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.StoreID == "" {
		response.Error(c, apperror.Validation("store_id is required"))
		return
	}

	from, err := dto.ParseDateBound(q.From, false)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	to, err := dto.ParseDateBound(q.To, true)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.TransactionListParams{
		StoreID: q.StoreID,
		From:    from,
		To:      to,
	}
	if q.Status != "" {
		params.Status = &q.Status
	}
	if q.Search != "" {
		params.Search = &q.Search
	}

	rows, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTransactionResponse(row))
	}

	response.OK(c, dto.TransactionListResponse{Items: items, Count: len(items)})
}

// toTransactionResponse converts a domain summary into the DTO.
func toTransactionResponse(s domain.TransactionSummary) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		InvoiceID:    s.InvoiceID,
		Created:      s.Created.UTC().Format(time.RFC3339),
		QrID:         s.QrID,
		DepixAddress: s.DepixAddress,
		ValueInCents: s.ValueInCents,
		StatusRaw:    s.StatusRaw,
	}
	if s.Status != nil {
		parsed := string(*s.Status)
		resp.Status = &parsed
	}
	return resp
}
