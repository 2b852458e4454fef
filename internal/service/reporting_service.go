package service

import (
	"context"
	"fmt"

	"pix-webhook-gateway/internal/core/domain"
	"pix-webhook-gateway/internal/core/ports"
	"pix-webhook-gateway/pkg/apperror"
)

// ReportingServiceImpl implements ports.ReportingService.
type ReportingServiceImpl struct {
	invoiceRepo ports.InvoiceRepository
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(invoiceRepo ports.InvoiceRepository) *ReportingServiceImpl {
	return &ReportingServiceImpl{invoiceRepo: invoiceRepo}
}

// ListTransactions returns the filtered transaction summaries for a
// store, newest first. The parsed status on each row is filled in here so
// the repository stays a plain query layer.
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.TransactionSummary, error) {
	rows, err := s.invoiceRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}

	for i := range rows {
		if parsed, ok := domain.ParseDepixStatus(rows[i].StatusRaw); ok {
			st := parsed
			rows[i].Status = &st
		}
	}
	return rows, nil
}
