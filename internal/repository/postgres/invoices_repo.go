package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baharkarakas/insider-ledger/internal/models"
	"github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type invoicesRepo struct{ pool *pgxpool.Pool }

const invoiceColumns = `id, user_id, target_payment_details, amount_in_minor_units, currency, status,
       vendor_name, details, transfer_idempotency_id, paid_by_account_id, created_at, last_updated`

func scanInvoice(row pgx.Row) (models.Invoice, error) {
	var i models.Invoice
	err := row.Scan(&i.ID, &i.UserID, &i.TargetPaymentDetails, &i.Amount, &i.Currency, &i.Status,
		&i.VendorName, &i.Details, &i.TransferIdempotencyID, &i.PaidByAccountID, &i.CreatedAt, &i.LastUpdated)
	return i, err
}

func (r *invoicesRepo) GetByID(ctx context.Context, id int64) (models.Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+`
		   FROM invoices
		  WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Invoice{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Invoice{}, fmt.Errorf("select invoice %d: %w", id, err)
	}
	return inv, nil
}

func (r *invoicesRepo) ListByUser(ctx context.Context, userID int64, status *models.InvoiceStatus) ([]models.Invoice, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+invoiceColumns+`
			   FROM invoices
			  WHERE user_id=$1
			  ORDER BY id`, userID)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+invoiceColumns+`
			   FROM invoices
			  WHERE user_id=$1
			    AND status=$2
			  ORDER BY id`, userID, *status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invoicesRepo) Finalize(ctx context.Context, id int64, status models.InvoiceStatus, idempotencyID string, paidByAccountID *int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices
		    SET status = $2,
		        transfer_idempotency_id = $3,
		        paid_by_account_id = $4,
		        last_updated = now()
		  WHERE id = $1
		    AND status = 'UNPAID'
		    AND transfer_idempotency_id IS NULL`,
		id, status, idempotencyID, paidByAccountID)
	if err != nil {
		return 0, fmt.Errorf("finalize invoice %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}
