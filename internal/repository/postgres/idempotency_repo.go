package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type idempotencyRepo struct{ pool *pgxpool.Pool }

func (r *idempotencyRepo) Insert(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO transfer_idempotency_ids (id) VALUES ($1)`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateIdempotencyID
		}
		return fmt.Errorf("save idempotency id: %w", err)
	}
	return nil
}
