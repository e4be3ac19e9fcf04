package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-ledger/internal/api"
	"github.com/baharkarakas/insider-ledger/internal/auth"
	"github.com/baharkarakas/insider-ledger/internal/config"
	"github.com/baharkarakas/insider-ledger/internal/db"
	"github.com/baharkarakas/insider-ledger/internal/gateway"
	"github.com/baharkarakas/insider-ledger/internal/logger"
	"github.com/baharkarakas/insider-ledger/internal/metrics"
	"github.com/baharkarakas/insider-ledger/internal/repository"
	"github.com/baharkarakas/insider-ledger/internal/repository/memory"
	"github.com/baharkarakas/insider-ledger/internal/repository/postgres"
	"github.com/baharkarakas/insider-ledger/internal/retry"
	"github.com/baharkarakas/insider-ledger/internal/seed"
	"github.com/baharkarakas/insider-ledger/internal/services"
	"github.com/baharkarakas/insider-ledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("store", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	fee, err := decimal.NewFromString(cfg.Gateway.Fee)
	if err != nil {
		log.Error("gateway fee", "value", cfg.Gateway.Fee, "err", err)
		os.Exit(1)
	}
	gw := gateway.NewDemo(gateway.DemoConfig{
		Fee:           fee,
		DeclineSuffix: cfg.Gateway.DeclineSuffix,
		TimeoutRate:   cfg.Gateway.TimeoutRate,
		MaxLatency:    cfg.Gateway.MaxLatency,
	}, log)

	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()

	lock := services.NewAccountLock(repos.Accounts, log)
	balances := services.NewBalanceMutator(repos.Accounts)
	audit := services.NewAuditor(repos.AuditLogs, wp, log)

	accountSvc := services.NewAccountService(repos.Accounts, repos.TopUps, lock, balances, audit, log)
	invoiceSvc := services.NewInvoiceService(repos.Invoices, log)
	transferSvc := services.NewTransferService(services.TransferDeps{
		Accounts:    repos.Accounts,
		Invoices:    repos.Invoices,
		Idempotency: repos.Idempotency,
		Lock:        lock,
		Balances:    balances,
		Gateway:     gw,
		Retry:       retry.Policy{MaxAttempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay},
		Audit:       audit,
		Log:         log,
	})

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:         cfg,
		Log:         log,
		Tokens:      auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
		AccountSvc:  accountSvc,
		InvoiceSvc:  invoiceSvc,
		TransferSvc: transferSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("fees collected by gateway", "total", gw.FeeTotal().StringFixed(2))
}

// openStore returns the configured ledger store and its cleanup func.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Repositories, func(), error) {
	if cfg.StoreDriver == "memory" {
		store := memory.NewStore()
		u, err := seed.LoadMemory(ctx, store)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		log.Warn("using in-memory store, data is lost on exit", "demo_user_id", u.ID)
		return store.Repositories(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, 0)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return repository.Repositories{}, nil, err
		}
	}
	return postgres.NewRepositories(pool), pool.Close, nil
}
