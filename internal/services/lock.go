package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/baharkarakas/insider-ledger/internal/metrics"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
)

var (
	// ErrAccountBusy means another mutation holds the account lock.
	ErrAccountBusy = errors.New("account is busy")
	// ErrPanicked wraps a panic recovered inside a critical section.
	ErrPanicked = errors.New("critical section panicked")
)

// AccountLock is an advisory per-account lock kept in the ledger store as a
// boolean flag. Acquisition is a single test-and-set: no waiting, no queue.
// The flag has no lease, so a process that dies while holding it leaves the
// account locked until someone clears the flag by hand.
type AccountLock struct {
	accounts repo.Accounts
	log      *slog.Logger
}

func NewAccountLock(accounts repo.Accounts, log *slog.Logger) *AccountLock {
	return &AccountLock{accounts: accounts, log: log}
}

func (l *AccountLock) TryLock(ctx context.Context, accountID int64) (bool, error) {
	n, err := l.accounts.TryLock(ctx, accountID)
	if err != nil {
		l.log.Warn("account lock failed", "account_id", accountID, "err", err)
		return false, fmt.Errorf("lock account %d: %w", accountID, err)
	}
	if n != 1 {
		metrics.LockContention.Inc()
		l.log.Warn("account lock not acquired, it might already be locked", "account_id", accountID)
		return false, nil
	}
	return true, nil
}

func (l *AccountLock) Unlock(ctx context.Context, accountID int64) (bool, error) {
	n, err := l.accounts.Unlock(ctx, accountID)
	if err != nil {
		l.log.Warn("account unlock failed", "account_id", accountID, "err", err)
		return false, fmt.Errorf("unlock account %d: %w", accountID, err)
	}
	if n != 1 {
		l.log.Warn("account unlock affected no row, it might already be unlocked", "account_id", accountID)
		return false, nil
	}
	return true, nil
}

// Critical runs fn while holding the account lock. It returns ErrAccountBusy
// without calling fn when the lock is taken. The lock is released on every
// exit path, including a panic in fn, which comes back wrapped in ErrPanicked.
//
// fn gets a context detached from ctx's cancellation: once the lock is held
// the section runs to completion even if the caller goes away.
func (l *AccountLock) Critical(ctx context.Context, accountID int64, fn func(ctx context.Context) error) (err error) {
	ok, err := l.TryLock(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountBusy
	}
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error("panic in critical section", "account_id", accountID, "err", rec)
			err = fmt.Errorf("%w: %v", ErrPanicked, rec)
		}
		_, _ = l.Unlock(context.WithoutCancel(ctx), accountID)
	}()
	return fn(context.WithoutCancel(ctx))
}
