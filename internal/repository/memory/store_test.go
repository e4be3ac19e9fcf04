package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/insider-ledger/internal/models"
	"github.com/baharkarakas/insider-ledger/internal/repository"
)

func TestTryLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := s.PutAccount(models.Account{UserID: 1, Currency: models.GBP})

	var won int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.TryLock(ctx, acc.ID)
			assert.NoError(t, err)
			atomic.AddInt64(&won, n)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), won)

	n, err := s.Unlock(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Unlock(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "unlocking an unlocked account affects nothing")
}

func TestCompareAndSwapBalance(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	acc := s.PutAccount(models.Account{UserID: 7, Balance: 1000, Currency: models.GBP})

	n, err := s.CompareAndSwapBalance(ctx, acc.ID, 7, 999, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "stale expected balance")

	n, err = s.CompareAndSwapBalance(ctx, acc.ID, 8, 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "wrong owner")

	n, err = s.CompareAndSwapBalance(ctx, acc.ID, 7, 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.Balance)
	assert.NotNil(t, got.LastUpdated)
}

func TestGetByIDMissing(t *testing.T) {
	s := NewStore()
	_, err := s.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Invoices().GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFinalizeOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	inv := s.PutInvoice(models.Invoice{UserID: 1, Amount: 5000, Currency: models.GBP, TargetPaymentDetails: "GB00 0001"})
	accID := int64(3)

	n, err := s.Invoices().Finalize(ctx, inv.ID, models.InvoicePaid, "idem-1", &accID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Invoices().Finalize(ctx, inv.ID, models.InvoiceDeclined, "idem-2", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := s.Invoices().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, got.Status)
	require.NotNil(t, got.TransferIdempotencyID)
	assert.Equal(t, "idem-1", *got.TransferIdempotencyID)
	require.NotNil(t, got.PaidByAccountID)
	assert.Equal(t, accID, *got.PaidByAccountID)
}

func TestListInvoicesByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutInvoice(models.Invoice{UserID: 1, Amount: 100, Currency: models.GBP})
	s.PutInvoice(models.Invoice{UserID: 1, Amount: 200, Currency: models.GBP, Status: models.InvoicePaid})
	s.PutInvoice(models.Invoice{UserID: 2, Amount: 300, Currency: models.GBP})

	all, err := s.Invoices().ListByUser(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unpaid := models.InvoiceUnpaid
	open, err := s.Invoices().ListByUser(ctx, 1, &unpaid)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int64(100), open[0].Amount)
	assert.Equal(t, models.DefaultVendorName, open[0].VendorName)
}

func TestIdempotencyInsert(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Idempotency().Insert(ctx, "abc"))
	assert.ErrorIs(t, s.Idempotency().Insert(ctx, "abc"), repository.ErrDuplicateIdempotencyID)
	assert.NoError(t, s.Idempotency().Insert(ctx, "abd"))
}

func TestTopUpHistory(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id, err := s.TopUps().Append(ctx, models.TopUp{AccountID: 1, Amount: 250, BalanceAtTopUp: 0, IdempotencyID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	hist, err := s.TopUps().ListByAccount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "t-1", hist[0].IdempotencyID)
}
