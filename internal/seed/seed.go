// Package seed holds the demo fixtures: one user with a funded GBP account
// and a handful of unpaid invoices, one of them payable only to a payee the
// demo gateway always declines.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/insider-ledger/internal/models"
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/baharkarakas/insider-ledger/internal/repository/memory"
)

const DemoUserName = "Demo User"

// Accounts are the demo accounts of userID.
func Accounts(userID int64) []models.Account {
	return []models.Account{
		{UserID: userID, Type: models.AccountCurrent, Balance: 20000, Currency: models.GBP, State: models.AccountActive},
		{UserID: userID, Type: models.AccountSavings, Balance: 100000, Currency: models.GBP, State: models.AccountActive},
		{UserID: userID, Type: models.AccountCurrent, Balance: 5000, Currency: models.EUR, State: models.AccountActive},
	}
}

// Invoices are the demo invoices of userID, all UNPAID.
func Invoices(userID int64) []models.Invoice {
	inv := func(payee string, amount int64, c models.Currency) models.Invoice {
		return models.Invoice{
			UserID:               userID,
			TargetPaymentDetails: payee,
			Amount:               amount,
			Currency:             c,
			Status:               models.InvoiceUnpaid,
			VendorName:           models.DefaultVendorName,
			Details:              models.DefaultInvoiceDetails,
		}
	}
	return []models.Invoice{
		inv("GB29 NWBK 6016 1331 9268 01", 5000, models.GBP),
		inv("GB29 NWBK 6016 1331 9268 02", 12500, models.GBP),
		inv("GB29 NWBK 6016 1331 9268 13", 2500, models.GBP),
		inv("DE89 3704 0044 0532 0130 00", 1999, models.EUR),
	}
}

// LoadMemory seeds the demo user into an in-memory store.
func LoadMemory(ctx context.Context, s *memory.Store) (models.User, error) {
	u, err := s.Users().Create(ctx, models.User{Name: DemoUserName})
	if err != nil {
		return models.User{}, err
	}
	for _, a := range Accounts(u.ID) {
		s.PutAccount(a)
	}
	for _, i := range Invoices(u.ID) {
		s.PutInvoice(i)
	}
	return u, nil
}

// LoadPostgres creates the demo user through users and bulk-copies its
// accounts and invoices.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool, users repo.Users) (models.User, error) {
	u, err := users.Create(ctx, models.User{Name: DemoUserName})
	if err != nil {
		return models.User{}, err
	}
	now := time.Now().UTC()

	var accRows [][]any
	for _, a := range Accounts(u.ID) {
		accRows = append(accRows, []any{a.UserID, string(a.Type), a.Balance, string(a.Currency), string(a.State), now})
	}
	if _, err := pool.CopyFrom(ctx,
		pgx.Identifier{"accounts"},
		[]string{"user_id", "type", "balance_in_minor_units", "currency", "state", "created_at"},
		pgx.CopyFromRows(accRows),
	); err != nil {
		return models.User{}, fmt.Errorf("copy accounts: %w", err)
	}

	var invRows [][]any
	for _, i := range Invoices(u.ID) {
		invRows = append(invRows, []any{i.UserID, i.TargetPaymentDetails, i.Amount, string(i.Currency), string(i.Status), i.VendorName, i.Details, now})
	}
	if _, err := pool.CopyFrom(ctx,
		pgx.Identifier{"invoices"},
		[]string{"user_id", "target_payment_details", "amount_in_minor_units", "currency", "status", "vendor_name", "details", "created_at"},
		pgx.CopyFromRows(invRows),
	); err != nil {
		return models.User{}, fmt.Errorf("copy invoices: %w", err)
	}
	return u, nil
}
