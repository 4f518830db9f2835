package api

import (
	"commerce_server/api/auth"
	"commerce_server/api/health"
	"commerce_server/api/middleware"
	"commerce_server/api/orders"
	"commerce_server/api/products"
	"commerce_server/config"
	"commerce_server/services"
	"commerce_server/structs"
	"fmt"
	"net/http"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	chiware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// App builds the HTTP handler. registry receives the HTTP metrics and is
// served on /metrics together with whatever the services registered on it.
func App(cfg *structs.Config, sm *services.ServiceManager, registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	// create loggers
	mwLogger := config.NewLogger(false)
	standardLogger := config.NewLogger(true)

	// Initialize middleware
	httpMetrics := health.NewHTTPMetrics(registry)
	mw := middleware.NewMiddleware(cfg, mwLogger, sm, httpMetrics)

	// Core infra
	r.Use(chiware.RequestID)
	r.Use(chiware.RealIP)
	r.Use(chiware.Recoverer)

	// Limits & security
	r.Use(mw.BodyLimit())
	r.Use(mw.SecurityHeaders())
	r.Use(mw.GeneralRateLimit())

	// Observability
	r.Use(gecho.Handlers.CreateLoggingMiddleware(mwLogger))
	r.Use(mw.MetricsMiddleware)

	// CORS (must be before auth)
	r.Use(mw.SetupCORS().Handler)

	// Register all routes
	NewRouterManager(
		products.NewProductRoutesManager(standardLogger, sm, mw),
		health.NewHealthRoutesManager(sm.HealthService, registry),
		auth.NewAuthRoutesManager(standardLogger, sm, mw),
		orders.NewOrderRoutesManager(standardLogger, sm, mw),
	).RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		gecho.Success(w,
			gecho.WithMessage(fmt.Sprintf("Welcome to the %s API", cfg.Server.AppName)),
			gecho.Send(),
		)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		gecho.NotFound(w,
			gecho.WithMessage("Route not found."),
			gecho.Send(),
		)
	})

	return r
}
