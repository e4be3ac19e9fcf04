package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/insider-ledger/internal/models"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrDuplicateIdempotencyID = errors.New("idempotency id already exists")
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

// Accounts is the account side of the ledger store. The conditional writes
// report the number of rows they affected; zero means the predicate failed.
type Accounts interface {
	GetByID(ctx context.Context, id int64) (models.Account, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Account, error)

	// TryLock flips locked false -> true. Exactly one row affected means the
	// caller now holds the advisory lock.
	TryLock(ctx context.Context, id int64) (int64, error)
	// Unlock flips locked true -> false.
	Unlock(ctx context.Context, id int64) (int64, error)
	// CompareAndSwapBalance writes next only while id, owner and the stored
	// balance (== expected) all still match.
	CompareAndSwapBalance(ctx context.Context, id, userID, expected, next int64) (int64, error)
}

type TopUps interface {
	Append(ctx context.Context, t models.TopUp) (int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]models.TopUp, error)
}

type Invoices interface {
	GetByID(ctx context.Context, id int64) (models.Invoice, error)
	// ListByUser returns every invoice of the user when status is nil.
	ListByUser(ctx context.Context, userID int64, status *models.InvoiceStatus) ([]models.Invoice, error)
	// Finalize moves an invoice out of UNPAID. It only applies while the
	// invoice is UNPAID with no transfer idempotency id recorded.
	Finalize(ctx context.Context, id int64, status models.InvoiceStatus, idempotencyID string, paidByAccountID *int64) (int64, error)
}

type IdempotencyTokens interface {
	// Insert returns ErrDuplicateIdempotencyID if id was seen before.
	Insert(ctx context.Context, id string) error
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// Repositories bundles one implementation of every store the services use.
type Repositories struct {
	Users       Users
	Accounts    Accounts
	TopUps      TopUps
	Invoices    Invoices
	Idempotency IdempotencyTokens
	AuditLogs   AuditLogs
}
