package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/baharkarakas/insider-ledger/internal/gateway"
	"github.com/baharkarakas/insider-ledger/internal/metrics"
	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/baharkarakas/insider-ledger/internal/retry"
)

type TransferDeps struct {
	Accounts    repo.Accounts
	Invoices    repo.Invoices
	Idempotency repo.IdempotencyTokens
	Lock        *AccountLock
	Balances    *BalanceMutator
	Gateway     gateway.Gateway
	Retry       retry.Policy
	Audit       *Auditor
	Log         *slog.Logger
}

type TransferService struct {
	accounts repo.Accounts
	invoices repo.Invoices
	idem     repo.IdempotencyTokens
	lock     *AccountLock
	balances *BalanceMutator
	gw       gateway.Gateway
	retry    retry.Policy
	audit    *Auditor
	log      *slog.Logger
}

func NewTransferService(d TransferDeps) *TransferService {
	return &TransferService{
		accounts: d.Accounts,
		invoices: d.Invoices,
		idem:     d.Idempotency,
		lock:     d.Lock,
		balances: d.Balances,
		gw:       d.Gateway,
		retry:    d.Retry,
		audit:    d.Audit,
		log:      d.Log,
	}
}

// TransferInvoices pays the selected UNPAID invoices of userID from
// accountID. The idempotency id is consumed before anything else, so a
// repeated id is reported as TransferDuplicate even if the first request
// failed. Invoices are processed one at a time; each succeeds or fails on
// its own.
func (s *TransferService) TransferInvoices(ctx context.Context, invoiceIDs []int64, accountID, userID int64, idempotencyID string) TransferResult {
	s.log.Info("processing invoices", "idempotency_id", idempotencyID, "account_id", accountID, "user_id", userID)

	if strings.TrimSpace(idempotencyID) == "" {
		return TransferFailure{Reason: "Idempotency-id is required"}
	}
	if err := s.idem.Insert(ctx, idempotencyID); err != nil {
		if errors.Is(err, repo.ErrDuplicateIdempotencyID) {
			s.log.Warn("duplicate transfer request", "idempotency_id", idempotencyID)
			metrics.InvoiceTransfersTotal.WithLabelValues("duplicate").Inc()
			return TransferDuplicate{IdempotencyID: idempotencyID}
		}
		s.log.Error("store idempotency id", "idempotency_id", idempotencyID, "err", err)
		return TransferFailure{Reason: "Failed with exception: " + err.Error()}
	}

	selected, err := s.selectUnpaid(ctx, userID, invoiceIDs)
	if err != nil {
		s.log.Error("list unpaid invoices", "user_id", userID, "err", err)
		return TransferFailure{Reason: "Failed with exception: " + err.Error()}
	}
	if len(selected) == 0 {
		return TransferFailure{Reason: fmt.Sprintf("No UNPAID invoices found for user-id: %d in invoices: [%s]", userID, joinIDs(invoiceIDs))}
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return TransferFailure{Reason: fmt.Sprintf("Account-id: %d not found in database", accountID)}
	}
	if err != nil {
		s.log.Error("transfer account lookup", "account_id", accountID, "err", err)
		return TransferFailure{Reason: "Failed with exception: " + err.Error()}
	}
	if acc.UserID != userID {
		return TransferFailure{Reason: fmt.Sprintf("Account-id: %d does not belong to %d", accountID, userID)}
	}

	results := make([]InvoiceResult, 0, len(selected))
	for _, inv := range selected {
		r := s.transferOne(ctx, inv, acc, idempotencyID)
		metrics.InvoiceTransfersTotal.WithLabelValues(OutcomeName(r)).Inc()
		results = append(results, r)
	}
	return TransferProcessed{Results: results}
}

func (s *TransferService) selectUnpaid(ctx context.Context, userID int64, invoiceIDs []int64) ([]models.Invoice, error) {
	unpaid := models.InvoiceUnpaid
	invs, err := s.invoices.ListByUser(ctx, userID, &unpaid)
	if err != nil {
		return nil, err
	}
	want := make(map[int64]struct{}, len(invoiceIDs))
	for _, id := range invoiceIDs {
		want[id] = struct{}{}
	}
	var out []models.Invoice
	for _, inv := range invs {
		if _, ok := want[inv.ID]; ok {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *TransferService) transferOne(ctx context.Context, inv models.Invoice, acc models.Account, idempotencyID string) InvoiceResult {
	log := s.log.With("invoice_id", inv.ID, "account_id", acc.ID, "idempotency_id", idempotencyID)
	log.Info("transferring invoice")

	if ctx.Err() != nil {
		return skipped(inv, "request was cancelled before the account could be locked")
	}
	if inv.Currency != acc.Currency {
		return skipped(inv, fmt.Sprintf("Invoice currency %s does not match account-id: %d currency %s", inv.Currency, acc.ID, acc.Currency))
	}

	var res InvoiceResult
	err := s.lock.Critical(ctx, acc.ID, func(ctx context.Context) error {
		var err error
		res, err = s.settle(ctx, log, inv, acc.ID, idempotencyID)
		return err
	})
	switch {
	case errors.Is(err, ErrAccountBusy):
		return skipped(inv, fmt.Sprintf("Account with id: %d could not be locked for invoice transfer, it might be locked by another transaction", acc.ID))
	case err != nil:
		log.Error("invoice transfer failed", "err", err)
		s.audit.Record("invoice", inv.ID, "invoice_transfer_failed", map[string]any{
			"account_id":     acc.ID,
			"idempotency_id": idempotencyID,
			"error":          err.Error(),
		})
		return failed(inv, s.currentStatus(inv), "Failed with exception: "+err.Error())
	}
	return res
}

// settle runs under the account lock. A non-nil error means an unexpected
// store fault; expected outcomes are returned as results.
func (s *TransferService) settle(ctx context.Context, log *slog.Logger, inv models.Invoice, accountID int64, idempotencyID string) (InvoiceResult, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return skipped(inv, fmt.Sprintf("Account-id: %d not found", accountID)), nil
	}
	if err != nil {
		return nil, err
	}

	amount := inv.AmountDecimal()
	fee, err := s.gw.CalculateFee(ctx, inv.TargetPaymentDetails, amount, inv.Currency)
	if err != nil {
		return nil, fmt.Errorf("calculate fee: %w", err)
	}
	feeMinor, err := models.ToMinorUnits(fee)
	if err != nil {
		return nil, fmt.Errorf("fee %s: %w", fee, err)
	}
	total := inv.Amount + feeMinor
	if acc.Balance < total {
		log.Warn("skipping invoice, balance below amount plus fee",
			"balance", models.FormatMinorUnits(acc.Balance),
			"amount", models.FormatMinorUnits(inv.Amount),
			"fee", models.FormatMinorUnits(feeMinor))
		return skipped(inv, fmt.Sprintf("Account-id: %d balance insufficient", accountID)), nil
	}

	outcome := s.retry.Do(ctx, func(ctx context.Context) (string, error) {
		r, err := s.gw.Transfer(ctx, inv.TargetPaymentDetails, models.FromMinorUnits(total), inv.Currency)
		metrics.GatewayAttempts.WithLabelValues(attemptLabel(err)).Inc()
		if err != nil {
			log.Warn("gateway transfer attempt failed", "err", err)
		}
		return r, err
	})

	if !strings.EqualFold(outcome, gateway.StatusOK) {
		n, err := s.invoices.Finalize(ctx, inv.ID, models.InvoiceDeclined, idempotencyID, nil)
		if err != nil {
			return nil, fmt.Errorf("decline invoice %d: %w", inv.ID, err)
		}
		if n != 1 {
			log.Error("invoice already finalized, decline not recorded")
			return failed(inv, s.currentStatus(inv), "invoice was finalized by another request"), nil
		}
		s.audit.Record("invoice", inv.ID, "invoice_declined", map[string]any{
			"account_id":     accountID,
			"idempotency_id": idempotencyID,
		})
		return declined(inv, "Unrecoverable error or retries exhausted"), nil
	}

	n, err := s.invoices.Finalize(ctx, inv.ID, models.InvoicePaid, idempotencyID, &accountID)
	if err != nil {
		return nil, fmt.Errorf("mark invoice %d paid: %w", inv.ID, err)
	}
	if n != 1 {
		// The gateway moved money but another request already finalized the
		// invoice; the account is not debited and the payment needs manual
		// reconciliation.
		log.Error("gateway transfer succeeded for an invoice finalized elsewhere", "amount", models.FormatMinorUnits(total))
		return failed(inv, s.currentStatus(inv), "invoice was finalized by another request"), nil
	}

	if err := s.balances.Apply(ctx, accountID, acc.UserID, acc.Balance, acc.Balance-total); err != nil {
		log.Error("invoice paid but debit failed", "err", err)
		return failed(inv, models.InvoicePaid, "invoice paid but account debit failed: "+err.Error()), nil
	}
	s.audit.Record("invoice", inv.ID, "invoice_paid", map[string]any{
		"account_id":     accountID,
		"idempotency_id": idempotencyID,
		"debited":        models.FormatMinorUnits(total),
		"fee":            models.FormatMinorUnits(feeMinor),
	})
	return paid(inv), nil
}

// currentStatus reads the stored status, falling back to inv's own status
// when the store cannot be read.
func (s *TransferService) currentStatus(inv models.Invoice) models.InvoiceStatus {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	cur, err := s.invoices.GetByID(ctx, inv.ID)
	if err != nil {
		return inv.Status
	}
	return cur.Status
}

func attemptLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gateway.ErrTimeout):
		return "timeout"
	case errors.Is(err, gateway.ErrDeclined):
		return "declined"
	default:
		return "error"
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
