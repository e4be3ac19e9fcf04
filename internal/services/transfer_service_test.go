package services

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/insider-ledger/internal/gateway"
	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
)

func processed(t *testing.T, res TransferResult) []InvoiceResult {
	t.Helper()
	p, ok := res.(TransferProcessed)
	require.True(t, ok, "got %#v", res)
	return p.Results
}

func TestTransferBatchWithDemoGateway(t *testing.T) {
	cfg := gateway.DefaultDemoConfig()
	cfg.MaxLatency = 0
	demo := gateway.NewDemo(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRand(func() float64 { return 0.5 })

	f := newFixture(t, demo)
	acc := f.account(1, 20000)
	first := f.invoice(1, 5000, "GB00 0001")
	second := f.invoice(1, 12500, "GB00 0002")
	third := f.invoice(1, 1000, "GB00 0013")

	res := f.transfers.TransferInvoices(context.Background(), []int64{third.ID, first.ID, second.ID}, acc.ID, 1, "batch-1")
	results := processed(t, res)
	require.Len(t, results, 3)

	assert.IsType(t, InvoicePaid{}, results[0])
	assert.Equal(t, first.ID, results[0].Outcome().Invoice.ID)
	assert.Equal(t, "Payment succeeded", results[0].Outcome().Message)
	assert.IsType(t, InvoicePaid{}, results[1])
	assert.IsType(t, InvoiceDeclined{}, results[2])
	assert.Equal(t, models.InvoiceDeclined, results[2].Outcome().NewStatus)

	got := f.reload(t, acc.ID)
	assert.Equal(t, int64(2300), got.Balance, "200.00 - 51.00 - 126.00")
	assert.False(t, got.Locked)
	assert.Equal(t, "2.00", demo.FeeTotal().StringFixed(2))

	inv := f.reloadInvoice(t, first.ID)
	assert.Equal(t, models.InvoicePaid, inv.Status)
	require.NotNil(t, inv.PaidByAccountID)
	assert.Equal(t, acc.ID, *inv.PaidByAccountID)
	require.NotNil(t, inv.TransferIdempotencyID)
	assert.Equal(t, "batch-1", *inv.TransferIdempotencyID)

	inv = f.reloadInvoice(t, third.ID)
	assert.Equal(t, models.InvoiceDeclined, inv.Status)
	assert.Nil(t, inv.PaidByAccountID)
	require.NotNil(t, inv.TransferIdempotencyID)
}

func TestTransferDuplicateIdempotencyID(t *testing.T) {
	gw := okGateway()
	f := newFixture(t, gw)
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")
	ctx := context.Background()

	processed(t, f.transfers.TransferInvoices(ctx, []int64{inv.ID}, acc.ID, 1, "same"))
	second := f.invoice(1, 1000, "GB00 0002")

	res := f.transfers.TransferInvoices(ctx, []int64{second.ID}, acc.ID, 1, "same")
	dup, ok := res.(TransferDuplicate)
	require.True(t, ok, "got %#v", res)
	assert.Equal(t, "same", dup.IdempotencyID)
	assert.Contains(t, dup.Message(), "has already been processed")

	assert.Equal(t, 1, gw.Calls())
	assert.Equal(t, models.InvoiceUnpaid, f.reloadInvoice(t, second.ID).Status)
	assert.Equal(t, int64(20000-5100), f.reload(t, acc.ID).Balance)
}

func TestTransferInsufficientBalanceSkips(t *testing.T) {
	gw := okGateway()
	f := newFixture(t, gw)
	acc := f.account(1, 5000)
	inv := f.invoice(1, 5000, "GB00 0001")

	results := processed(t, f.transfers.TransferInvoices(context.Background(), []int64{inv.ID}, acc.ID, 1, "i-1"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoiceSkipped{}, results[0])
	assert.Contains(t, results[0].Outcome().Message, "balance insufficient")
	assert.Equal(t, models.InvoiceUnpaid, results[0].Outcome().NewStatus)

	assert.Equal(t, 0, gw.Calls())
	got := f.reload(t, acc.ID)
	assert.Equal(t, int64(5000), got.Balance)
	assert.False(t, got.Locked)
	assert.Equal(t, models.InvoiceUnpaid, f.reloadInvoice(t, inv.ID).Status)
}

func TestTransferLockedAccountSkips(t *testing.T) {
	gw := okGateway()
	f := newFixture(t, gw)
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")
	ctx := context.Background()
	_, err := f.store.TryLock(ctx, acc.ID)
	require.NoError(t, err)

	results := processed(t, f.transfers.TransferInvoices(ctx, []int64{inv.ID}, acc.ID, 1, "l-1"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoiceSkipped{}, results[0])
	assert.Contains(t, results[0].Outcome().Message, "locked by another transaction")
	assert.Equal(t, 0, gw.Calls())
	assert.True(t, f.reload(t, acc.ID).Locked)
}

func TestTransferEmptySelectionFails(t *testing.T) {
	f := newFixture(t, okGateway())
	acc := f.account(1, 20000)
	other := f.invoice(2, 5000, "GB00 0001")
	settled := f.store.PutInvoice(models.Invoice{UserID: 1, Amount: 100, Currency: models.GBP, Status: models.InvoicePaid})

	res := f.transfers.TransferInvoices(context.Background(), []int64{other.ID, settled.ID, 999}, acc.ID, 1, "e-1")
	fail, ok := res.(TransferFailure)
	require.True(t, ok, "got %#v", res)
	assert.True(t, strings.HasPrefix(fail.Reason, "No UNPAID invoices found for user-id: 1"))
	assert.Equal(t, int64(20000), f.reload(t, acc.ID).Balance)
}

func TestTransferAccountChecks(t *testing.T) {
	f := newFixture(t, okGateway())
	acc := f.account(2, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")
	ctx := context.Background()

	res := f.transfers.TransferInvoices(ctx, []int64{inv.ID}, acc.ID, 1, "a-1")
	fail, ok := res.(TransferFailure)
	require.True(t, ok)
	assert.Contains(t, fail.Reason, "does not belong to 1")

	res = f.transfers.TransferInvoices(ctx, []int64{inv.ID}, 999, 1, "a-2")
	fail, ok = res.(TransferFailure)
	require.True(t, ok)
	assert.Contains(t, fail.Reason, "not found in database")

	res = f.transfers.TransferInvoices(ctx, []int64{inv.ID}, acc.ID, 1, " ")
	_, ok = res.(TransferFailure)
	assert.True(t, ok)
	assert.Equal(t, models.InvoiceUnpaid, f.reloadInvoice(t, inv.ID).Status)
}

func TestTransferRetriesExhaustedDeclines(t *testing.T) {
	gw := newScriptedGateway(func(string, int) (string, error) { return "", gateway.ErrTimeout })
	f := newFixture(t, gw)
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")

	results := processed(t, f.transfers.TransferInvoices(context.Background(), []int64{inv.ID}, acc.ID, 1, "r-1"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoiceDeclined{}, results[0])
	assert.Equal(t, "Payment declined: Unrecoverable error or retries exhausted", results[0].Outcome().Message)
	assert.Equal(t, 3, gw.Calls())
	assert.Equal(t, int64(20000), f.reload(t, acc.ID).Balance)
}

func TestTransferTimeoutThenSuccessPays(t *testing.T) {
	gw := newScriptedGateway(func(_ string, call int) (string, error) {
		if call == 1 {
			return "", gateway.ErrTimeout
		}
		return "ok", nil
	})
	f := newFixture(t, gw)
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")

	results := processed(t, f.transfers.TransferInvoices(context.Background(), []int64{inv.ID}, acc.ID, 1, "r-2"))
	assert.IsType(t, InvoicePaid{}, results[0])
	assert.Equal(t, 2, gw.Calls())
	assert.Equal(t, "51.00", gw.amounts[1].StringFixed(2))
	assert.Equal(t, int64(20000-5100), f.reload(t, acc.ID).Balance)
}

func TestTransferCurrencyMismatchSkips(t *testing.T) {
	gw := okGateway()
	f := newFixture(t, gw)
	acc := f.account(1, 20000)
	inv := f.store.PutInvoice(models.Invoice{UserID: 1, Amount: 100, Currency: models.EUR, TargetPaymentDetails: "DE00"})

	results := processed(t, f.transfers.TransferInvoices(context.Background(), []int64{inv.ID}, acc.ID, 1, "c-1"))
	assert.IsType(t, InvoiceSkipped{}, results[0])
	assert.Equal(t, 0, gw.Calls())
}

func TestTransferPanicInsideCriticalSectionUnlocks(t *testing.T) {
	f := newFixtureWithAccounts(t, okGateway(), func(a repo.Accounts) repo.Accounts {
		return faultyAccounts{Accounts: a, cas: func(context.Context, int64, int64, int64, int64) (int64, error) { panic("store exploded") }}
	})
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")

	results := processed(t, f.transfers.TransferInvoices(context.Background(), []int64{inv.ID}, acc.ID, 1, "p-1"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoiceFailed{}, results[0])
	assert.Equal(t, models.InvoicePaid, results[0].Outcome().NewStatus)

	got := f.reload(t, acc.ID)
	assert.False(t, got.Locked)
	assert.Equal(t, int64(20000), got.Balance)
}

func TestTransferDebitConflictReportsFailure(t *testing.T) {
	f := newFixtureWithAccounts(t, okGateway(), func(a repo.Accounts) repo.Accounts {
		return faultyAccounts{Accounts: a, cas: func(context.Context, int64, int64, int64, int64) (int64, error) { return 0, nil }}
	})
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")

	results := processed(t, f.transfers.TransferInvoices(context.Background(), []int64{inv.ID}, acc.ID, 1, "d-1"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoiceFailed{}, results[0])
	assert.Contains(t, results[0].Outcome().Message, "debit failed")
	assert.False(t, f.reload(t, acc.ID).Locked)
}

func TestListInvoicesForUser(t *testing.T) {
	f := newFixture(t, okGateway())
	f.invoice(1, 100, "a")
	f.store.PutInvoice(models.Invoice{UserID: 1, Amount: 200, Currency: models.GBP, Status: models.InvoiceDeclined})
	ctx := context.Background()

	all, err := f.invoices.ListForUser(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	declined := models.InvoiceDeclined
	some, err := f.invoices.ListForUser(ctx, 1, &declined)
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, int64(200), some[0].Amount)
}

func TestTransferCompletesAfterCallerCancels(t *testing.T) {
	cfg := gateway.DefaultDemoConfig()
	cfg.MaxLatency = 200 * time.Millisecond
	demo := gateway.NewDemo(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).WithRand(func() float64 { return 0.9 })

	f := newFixture(t, demo)
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	results := processed(t, f.transfers.TransferInvoices(ctx, []int64{inv.ID}, acc.ID, 1, "gone-1"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoicePaid{}, results[0])
	require.Error(t, ctx.Err(), "caller context should have expired during the gateway call")

	assert.Equal(t, models.InvoicePaid, f.reloadInvoice(t, inv.ID).Status)
	got := f.reload(t, acc.ID)
	assert.Equal(t, int64(20000-5100), got.Balance)
	assert.False(t, got.Locked)
}

func TestTransferSkipsWhenCancelledBeforeLocking(t *testing.T) {
	gw := okGateway()
	f := newFixture(t, gw)
	acc := f.account(1, 20000)
	inv := f.invoice(1, 5000, "GB00 0001")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := processed(t, f.transfers.TransferInvoices(ctx, []int64{inv.ID}, acc.ID, 1, "gone-2"))
	require.Len(t, results, 1)
	assert.IsType(t, InvoiceSkipped{}, results[0])
	assert.Equal(t, 0, gw.Calls())
	assert.Equal(t, models.InvoiceUnpaid, f.reloadInvoice(t, inv.ID).Status)
}

func TestConcurrentTransfersAndTopUpsBalance(t *testing.T) {
	f := newFixture(t, okGateway())
	const initial = 10000
	acc := f.account(1, initial)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, f.invoice(1, 1000, "GB00 000"+strconv.Itoa(i)).ID)
	}

	const transfers, topUps = 6, 12
	transferResults := make([]TransferResult, transfers)
	topUpResults := make([]TopUpResult, topUps)
	var wg sync.WaitGroup
	for i := 0; i < transfers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transferResults[i] = f.transfers.TransferInvoices(ctx, ids, acc.ID, 1, "mix-t-"+strconv.Itoa(i))
		}(i)
	}
	for i := 0; i < topUps; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			topUpResults[i] = f.accounts.TopUp(ctx, acc.ID, 1, decimal.NewFromInt(5), models.GBP, "mix-u-"+strconv.Itoa(i))
		}(i)
	}
	wg.Wait()

	var credited int64
	for _, r := range topUpResults {
		if _, ok := r.(TopUpSuccess); ok {
			credited += 500
		}
	}
	var paidCount int
	for _, r := range transferResults {
		p, ok := r.(TransferProcessed)
		if !ok {
			continue
		}
		for _, ir := range p.Results {
			if _, ok := ir.(InvoicePaid); ok {
				paidCount++
			}
		}
	}

	var stored int
	for _, id := range ids {
		if f.reloadInvoice(t, id).Status == models.InvoicePaid {
			stored++
		}
	}
	assert.Equal(t, stored, paidCount, "each invoice is paid at most once")

	got := f.reload(t, acc.ID)
	assert.Equal(t, int64(initial)+credited-int64(paidCount)*1100, got.Balance)
	assert.False(t, got.Locked)
}
