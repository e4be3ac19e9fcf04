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

type accountsRepo struct{ pool *pgxpool.Pool }

const accountColumns = `id, user_id, type, balance_in_minor_units, currency, state, locked, created_at, last_updated`

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Balance, &a.Currency, &a.State, &a.Locked, &a.CreatedAt, &a.LastUpdated)
	return a, err
}

func (r *accountsRepo) GetByID(ctx context.Context, id int64) (models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+`
		   FROM accounts
		  WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("select account %d: %w", id, err)
	}
	return a, nil
}

func (r *accountsRepo) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+`
		   FROM accounts
		  WHERE user_id=$1
		  ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) TryLock(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts
		    SET locked = TRUE, last_updated = now()
		  WHERE id = $1
		    AND locked = FALSE`, id)
	if err != nil {
		return 0, fmt.Errorf("lock account %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (r *accountsRepo) Unlock(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts
		    SET locked = FALSE, last_updated = now()
		  WHERE id = $1
		    AND locked = TRUE`, id)
	if err != nil {
		return 0, fmt.Errorf("unlock account %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (r *accountsRepo) CompareAndSwapBalance(ctx context.Context, id, userID, expected, next int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts
		    SET balance_in_minor_units = $4, last_updated = now()
		  WHERE id = $1
		    AND user_id = $2
		    AND balance_in_minor_units = $3`,
		id, userID, expected, next)
	if err != nil {
		return 0, fmt.Errorf("write balance of account %d: %w", id, err)
	}
	return tag.RowsAffected(), nil
}
