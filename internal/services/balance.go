package services

import (
	"context"
	"errors"
	"fmt"

	repo "github.com/baharkarakas/insider-ledger/internal/repository"
)

var (
	// ErrBalanceConflict means the stored balance (or owner) no longer matched
	// the expected value, so nothing was written.
	ErrBalanceConflict = errors.New("balance changed concurrently")
	// ErrNegativeBalance rejects a write that would take the balance below zero.
	ErrNegativeBalance = errors.New("balance would become negative")
)

// BalanceMutator performs the conditional balance write. Callers are expected
// to hold the account lock and to pass the balance they read under it.
type BalanceMutator struct {
	accounts repo.Accounts
}

func NewBalanceMutator(accounts repo.Accounts) *BalanceMutator {
	return &BalanceMutator{accounts: accounts}
}

func (m *BalanceMutator) Apply(ctx context.Context, accountID, userID, expected, next int64) error {
	if next < 0 {
		return ErrNegativeBalance
	}
	n, err := m.accounts.CompareAndSwapBalance(ctx, accountID, userID, expected, next)
	if err != nil {
		return fmt.Errorf("update balance of account %d: %w", accountID, err)
	}
	if n != 1 {
		return fmt.Errorf("account %d: %w", accountID, ErrBalanceConflict)
	}
	return nil
}
