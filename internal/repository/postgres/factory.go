package postgres

import (
	repo "github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Users:       &usersRepo{pool},
		Accounts:    &accountsRepo{pool},
		TopUps:      &topUpsRepo{pool},
		Invoices:    &invoicesRepo{pool},
		Idempotency: &idempotencyRepo{pool},
		AuditLogs:   &auditLogsRepo{pool},
	}
}
