package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/gateway"
	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/baharkarakas/insider-ledger/internal/repository/memory"
	"github.com/baharkarakas/insider-ledger/internal/retry"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// scriptedGateway charges a fixed fee and answers transfers from a script.
type scriptedGateway struct {
	fee decimal.Decimal

	mu      sync.Mutex
	answer  func(payee string, call int) (string, error)
	calls   int
	payees  []string
	amounts []decimal.Decimal
}

func newScriptedGateway(answer func(payee string, call int) (string, error)) *scriptedGateway {
	return &scriptedGateway{fee: decimal.NewFromInt(1), answer: answer}
}

func okGateway() *scriptedGateway {
	return newScriptedGateway(func(string, int) (string, error) { return gateway.StatusOK, nil })
}

func (g *scriptedGateway) CalculateFee(ctx context.Context, payee string, amount decimal.Decimal, currency models.Currency) (decimal.Decimal, error) {
	return g.fee, nil
}

func (g *scriptedGateway) Transfer(ctx context.Context, payee string, amount decimal.Decimal, currency models.Currency) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.payees = append(g.payees, payee)
	g.amounts = append(g.amounts, amount)
	return g.answer(payee, g.calls)
}

func (g *scriptedGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// faultyAccounts lets a test break the balance write.
type faultyAccounts struct {
	repo.Accounts
	cas func(ctx context.Context, id, userID, expected, next int64) (int64, error)
}

func (f faultyAccounts) CompareAndSwapBalance(ctx context.Context, id, userID, expected, next int64) (int64, error) {
	if f.cas != nil {
		return f.cas(ctx, id, userID, expected, next)
	}
	return f.Accounts.CompareAndSwapBalance(ctx, id, userID, expected, next)
}

type fixture struct {
	store     *memory.Store
	gw        gateway.Gateway
	lock      *AccountLock
	accounts  *AccountService
	invoices  *InvoiceService
	transfers *TransferService
}

func newFixture(t *testing.T, gw gateway.Gateway) *fixture {
	t.Helper()
	return newFixtureWithAccounts(t, gw, nil)
}

// newFixtureWithAccounts wires the services over the memory store, optionally
// routing account writes through wrap.
func newFixtureWithAccounts(t *testing.T, gw gateway.Gateway, wrap func(repo.Accounts) repo.Accounts) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	accounts := repos.Accounts
	if wrap != nil {
		accounts = wrap(accounts)
	}
	log := quietLogger()
	lock := NewAccountLock(accounts, log)
	balances := NewBalanceMutator(accounts)
	audit := NewAuditor(repos.AuditLogs, nil, log)
	return &fixture{
		store:    store,
		gw:       gw,
		lock:     lock,
		accounts: NewAccountService(accounts, repos.TopUps, lock, balances, audit, log),
		invoices: NewInvoiceService(repos.Invoices, log),
		transfers: NewTransferService(TransferDeps{
			Accounts:    accounts,
			Invoices:    repos.Invoices,
			Idempotency: repos.Idempotency,
			Lock:        lock,
			Balances:    balances,
			Gateway:     gw,
			Retry:       retry.Policy{MaxAttempts: 3, Delay: 0},
			Audit:       audit,
			Log:         log,
		}),
	}
}

func (f *fixture) account(userID, balance int64) models.Account {
	return f.store.PutAccount(models.Account{
		UserID:   userID,
		Type:     models.AccountCurrent,
		Balance:  balance,
		Currency: models.GBP,
	})
}

func (f *fixture) invoice(userID, amount int64, payee string) models.Invoice {
	return f.store.PutInvoice(models.Invoice{
		UserID:               userID,
		TargetPaymentDetails: payee,
		Amount:               amount,
		Currency:             models.GBP,
	})
}

func (f *fixture) reload(t *testing.T, accountID int64) models.Account {
	t.Helper()
	a, err := f.store.GetByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("reload account %d: %v", accountID, err)
	}
	return a
}

func (f *fixture) reloadInvoice(t *testing.T, id int64) models.Invoice {
	t.Helper()
	inv, err := f.store.Invoices().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload invoice %d: %v", id, err)
	}
	return inv
}
