package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fablepress/fulfillment/internal/adapter/http/handler"
	"github.com/fablepress/fulfillment/internal/adapter/http/middleware"
	"github.com/fablepress/fulfillment/internal/infrastructure/auth"
	"github.com/fablepress/fulfillment/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	FulfillmentHandler *handler.FulfillmentHandler
	CreditHandler      *handler.CreditHandler
	StoryHandler       *handler.StoryHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration           // zero means usecase.IdempotencyKeyTTL
	RateLimiter        *middleware.RateLimiter // nil disables rate limiting
	JWTManager         *auth.JWTManager        // nil disables JWT auth
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		if cfg.JWTManager != nil {
			r.Use(middleware.Auth(cfg.JWTManager))
		} else {
			r.Use(middleware.OwnerFromHeader)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Fulfillments
		r.Route("/fulfillments", func(r chi.Router) {
			r.Post("/", cfg.FulfillmentHandler.Create)
			r.Get("/", cfg.FulfillmentHandler.List)
			r.Get("/{id}", cfg.FulfillmentHandler.Get)
		})

		// Credits
		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", cfg.CreditHandler.GetBalance)
			r.Get("/entries", cfg.CreditHandler.ListEntries)
			r.Get("/packs", cfg.CreditHandler.ListPacks)
			r.Post("/purchase", cfg.CreditHandler.Purchase)
			r.Post("/grant", cfg.CreditHandler.Grant)
		})

		// Stories
		r.Get("/stories/{id}", cfg.StoryHandler.Get)

		// Ledger integrity
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/owners/{ownerID}", cfg.LedgerHandler.ReconcileOwner)
			r.Get("/orphans", cfg.LedgerHandler.ListOrphanedWorkOrders)
		})
	})

	return r
}
