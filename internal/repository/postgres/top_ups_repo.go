package postgres

import (
	"context"

	"github.com/baharkarakas/insider-ledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type topUpsRepo struct{ pool *pgxpool.Pool }

func (r *topUpsRepo) Append(ctx context.Context, t models.TopUp) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO top_ups (account_id, amount_in_minor_units, balance_at_top_up_in_minor_units, top_up_idempotency_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		t.AccountID, t.Amount, t.BalanceAtTopUp, t.IdempotencyID,
	).Scan(&id)
	return id, err
}

func (r *topUpsRepo) ListByAccount(ctx context.Context, accountID int64) ([]models.TopUp, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, amount_in_minor_units, balance_at_top_up_in_minor_units, top_up_idempotency_id, created_at
		   FROM top_ups
		  WHERE account_id=$1
		  ORDER BY id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TopUp
	for rows.Next() {
		var t models.TopUp
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.BalanceAtTopUp, &t.IdempotencyID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
