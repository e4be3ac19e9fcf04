package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/baharkarakas/insider-ledger/internal/config"
	"github.com/baharkarakas/insider-ledger/internal/db"
	"github.com/baharkarakas/insider-ledger/internal/logger"
	"github.com/baharkarakas/insider-ledger/internal/repository/postgres"
	"github.com/baharkarakas/insider-ledger/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 4)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Error("migrations", "err", err)
		os.Exit(1)
	}

	var users int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		log.Error("count users", "err", err)
		os.Exit(1)
	}
	if users > 0 {
		log.Info("database already seeded, skipping", "users", users)
		return
	}

	repos := postgres.NewRepositories(pool)
	u, err := seed.LoadPostgres(ctx, pool, repos.Users)
	if err != nil {
		log.Error("seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeded demo fixtures",
		"user_id", u.ID,
		"accounts", len(seed.Accounts(u.ID)),
		"invoices", len(seed.Invoices(u.ID)))
}
