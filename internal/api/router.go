package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskhub/platform-core/internal/audit"
	"github.com/riskhub/platform-core/internal/outbox"
	"github.com/riskhub/platform-core/internal/store"
	"github.com/riskhub/platform-core/internal/tenant"
)

// NewRouter creates and configures the HTTP router. Every request passes
// through the tenant middleware: subdomain resolution first, API key second,
// with the request context installed and cleared around the whole chain.
func NewRouter(
	pgStore *store.PostgresStore,
	outboxEmitter *outbox.Emitter,
	auditEmitter *audit.Emitter,
	baseDomain string,
	logger *slog.Logger,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(tenant.Middleware(baseDomain, pgStore, logger))
	r.Use(tenant.APIKeyAuth(pgStore, logger))

	// Handlers
	eventHandler := NewEventHandler(pgStore, outboxEmitter, auditEmitter)
	auditHandler := NewAuditEventHandler(pgStore)
	outboxHandler := NewOutboxHandler(pgStore)
	tenantHandler := NewTenantHandler(pgStore)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Group(func(r chi.Router) {
			r.Use(tenant.RequireTenant)

			r.Post("/events", eventHandler.Publish)
			r.Get("/audit-events", auditHandler.List)
			r.Get("/outbox/stats", outboxHandler.Stats)
		})

		// Provisioning runs on the bare base domain only
		r.Group(func(r chi.Router) {
			r.Use(tenant.RequireBaseDomain)

			r.Post("/tenants", tenantHandler.Create)
			r.Get("/tenants", tenantHandler.List)
		})
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}
