package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/metrics"
	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
)

type AccountService struct {
	accounts repo.Accounts
	topUps   repo.TopUps
	lock     *AccountLock
	balances *BalanceMutator
	audit    *Auditor
	log      *slog.Logger
}

func NewAccountService(accounts repo.Accounts, topUps repo.TopUps, lock *AccountLock, balances *BalanceMutator, audit *Auditor, log *slog.Logger) *AccountService {
	return &AccountService{accounts: accounts, topUps: topUps, lock: lock, balances: balances, audit: audit, log: log}
}

func (s *AccountService) ListForUser(ctx context.Context, userID int64) ([]models.Account, error) {
	return s.accounts.ListByUser(ctx, userID)
}

// TopUp credits amount to the account. Expected outcomes, including lock
// contention, come back as TopUpFailure; nothing is retried. Top-up
// idempotency ids are recorded with the history but not deduplicated.
func (s *AccountService) TopUp(ctx context.Context, accountID, userID int64, amount decimal.Decimal, currency models.Currency, idempotencyID string) TopUpResult {
	res := s.topUp(ctx, accountID, userID, amount, currency, idempotencyID)
	switch r := res.(type) {
	case TopUpSuccess:
		metrics.TopUpsTotal.WithLabelValues("success").Inc()
	case TopUpFailure:
		metrics.TopUpsTotal.WithLabelValues("failure").Inc()
		s.log.Info("top-up rejected", "account_id", accountID, "user_id", userID, "reason", r.Reason)
	}
	return res
}

func (s *AccountService) topUp(ctx context.Context, accountID, userID int64, amount decimal.Decimal, currency models.Currency, idempotencyID string) TopUpResult {
	if !amount.IsPositive() {
		return TopUpFailure{Reason: "Top-up amount is zero or negative"}
	}
	minor, err := models.ToMinorUnits(amount)
	if err != nil {
		return TopUpFailure{Reason: "Top-up amount " + amount.String() + " is invalid: " + err.Error()}
	}

	acc, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return TopUpFailure{Reason: fmt.Sprintf("Account with id: %d does not exist", accountID)}
	}
	if err != nil {
		s.log.Error("top-up account lookup", "account_id", accountID, "err", err)
		return TopUpFailure{Reason: "Failed with exception: " + err.Error()}
	}
	if acc.UserID != userID {
		return TopUpFailure{Reason: fmt.Sprintf("Account with id: %d does not belong to user: %d", accountID, userID)}
	}
	if acc.Currency != currency {
		return TopUpFailure{Reason: fmt.Sprintf("Account with id: %d is currency %s, not %s", accountID, acc.Currency, currency)}
	}

	var newBalance int64
	err = s.lock.Critical(ctx, accountID, func(ctx context.Context) error {
		current, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return err
		}
		if current.Balance > math.MaxInt64-minor {
			return models.ErrAmountOutOfRange
		}
		newBalance = current.Balance + minor
		if _, err := s.topUps.Append(ctx, models.TopUp{
			AccountID:      accountID,
			Amount:         minor,
			BalanceAtTopUp: current.Balance,
			IdempotencyID:  idempotencyID,
		}); err != nil {
			return err
		}
		return s.balances.Apply(ctx, accountID, userID, current.Balance, newBalance)
	})
	switch {
	case errors.Is(err, ErrAccountBusy):
		return TopUpFailure{Reason: fmt.Sprintf("Account with id: %d could not be locked for top-up, it might be locked by another transaction", accountID)}
	case err != nil:
		s.log.Error("top-up failed", "account_id", accountID, "idempotency_id", idempotencyID, "err", err)
		s.audit.Record("account", accountID, "top_up_rejected", map[string]any{
			"amount":         models.FormatMinorUnits(minor),
			"idempotency_id": idempotencyID,
			"error":          err.Error(),
		})
		return TopUpFailure{Reason: "Failed with exception: " + err.Error()}
	}

	s.audit.Record("account", accountID, "top_up_applied", map[string]any{
		"amount":         models.FormatMinorUnits(minor),
		"new_balance":    models.FormatMinorUnits(newBalance),
		"idempotency_id": idempotencyID,
	})
	return TopUpSuccess{NewBalance: models.FromMinorUnits(newBalance), Currency: acc.Currency}
}
