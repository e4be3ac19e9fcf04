package services

import (
	"context"
	"log/slog"

	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
)

type InvoiceService struct {
	invoices repo.Invoices
	log      *slog.Logger
}

func NewInvoiceService(invoices repo.Invoices, log *slog.Logger) *InvoiceService {
	return &InvoiceService{invoices: invoices, log: log}
}

// ListForUser returns the user's invoices, all of them when status is nil.
func (s *InvoiceService) ListForUser(ctx context.Context, userID int64, status *models.InvoiceStatus) ([]models.Invoice, error) {
	if status != nil {
		s.log.Debug("listing invoices", "user_id", userID, "status", *status)
	} else {
		s.log.Debug("listing invoices", "user_id", userID)
	}
	return s.invoices.ListByUser(ctx, userID, status)
}
