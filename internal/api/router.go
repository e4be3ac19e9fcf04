package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/insider-ledger/internal/api/handlers"
	"github.com/baharkarakas/insider-ledger/internal/auth"
	"github.com/baharkarakas/insider-ledger/internal/config"
	"github.com/baharkarakas/insider-ledger/internal/metrics"
	"github.com/baharkarakas/insider-ledger/internal/middleware"
	"github.com/baharkarakas/insider-ledger/internal/services"
)

type RouterDeps struct {
	Cfg         config.Config
	Log         *slog.Logger
	Tokens      *auth.TokenManager
	AccountSvc  *services.AccountService
	InvoiceSvc  *services.InvoiceService
	TransferSvc *services.TransferService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-Id", "X-Idempotency-Id", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(d.Tokens, d.Cfg.Env, d.Log)
	accountH := handlers.NewAccountHandler(d.AccountSvc, d.Log)
	invoiceH := handlers.NewInvoiceHandler(d.InvoiceSvc, d.TransferSvc, d.Log)
	identity := middleware.NewIdentity(d.Tokens, d.Cfg.Env)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/token", authH.Token)
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(identity.Require)

			// ---------- accounts ----------
			r.Get("/accounts", accountH.List)
			r.Post("/accounts/{accountID}/top-up", accountH.TopUp)

			// ---------- invoices ----------
			r.Get("/invoices", invoiceH.List)
			r.Post("/invoices/transfer", invoiceH.Transfer)
		})
	})

	return r
}
