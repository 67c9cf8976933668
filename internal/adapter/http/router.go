package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/ledgersync/internal/adapter/http/handler"
	"github.com/iho/ledgersync/internal/adapter/http/middleware"
	"github.com/iho/ledgersync/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Logger                zerolog.Logger
	AccountHandler        *handler.AccountHandler
	EntryHandler          *handler.EntryHandler
	ReconciliationHandler *handler.ReconciliationHandler
	ConnectionHandler     *handler.ConnectionHandler
	AuditHandler          *handler.AuditHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/balance", cfg.AccountHandler.GetBalance)
			r.Get("/{id}/transactions", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/statements", cfg.ReconciliationHandler.ListByAccount)
		})

		// Ledger transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Patch("/{id}", cfg.EntryHandler.Update)
			r.Post("/{id}/void", cfg.EntryHandler.Void)
			r.Post("/{id}/reverse", cfg.EntryHandler.Reverse)
		})

		// Bank statements and reconciliation
		r.Route("/statements", func(r chi.Router) {
			r.Post("/", cfg.ReconciliationHandler.ImportStatement)
			r.Get("/{id}", cfg.ReconciliationHandler.GetStatement)
			r.Post("/{id}/reconcile", cfg.ReconciliationHandler.Reconcile)
			r.Post("/{id}/mark-reconciled", cfg.ReconciliationHandler.MarkReconciled)
		})

		// Bank feed connections
		r.Route("/connections", func(r chi.Router) {
			r.Post("/", cfg.ConnectionHandler.Link)
			r.Get("/", cfg.ConnectionHandler.List)
			r.Get("/{id}", cfg.ConnectionHandler.Get)
			r.Post("/{id}/sync", cfg.ConnectionHandler.Sync)
			r.Post("/{id}/disconnect", cfg.ConnectionHandler.Disconnect)
			r.Post("/{id}/reactivate", cfg.ConnectionHandler.Reactivate)
		})

		// Audit trail
		r.Get("/audit", cfg.AuditHandler.List)
	})

	return r
}
