package health

import (
	"commerce_server/services"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthRoutesManager struct {
	healthService *services.HealthService
	gatherer      prometheus.Gatherer
}

func NewHealthRoutesManager(healthService *services.HealthService, gatherer prometheus.Gatherer) *HealthRoutesManager {
	return &HealthRoutesManager{
		healthService: healthService,
		gatherer:      gatherer,
	}
}

func (hrm *HealthRoutesManager) RegisterRoutes(r chi.Router) {
	r.Get("/health/server", hrm.GetServerHealth)
	r.Get("/health/database", hrm.GetDatabaseHealth)
	r.Get("/health/cache", hrm.GetCacheHealth)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(hrm.gatherer, promhttp.HandlerOpts{}))
}
