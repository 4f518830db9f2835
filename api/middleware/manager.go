package middleware

import (
	"commerce_server/api/health"
	"commerce_server/services"
	"commerce_server/structs"

	"github.com/MonkyMars/gecho"
)

type Middleware struct {
	cfg          *structs.Config
	logger       *gecho.Logger
	authService  *services.AuthService
	cacheService *services.CacheService
	httpMetrics  *health.HTTPMetrics
}

func NewMiddleware(cfg *structs.Config, logger *gecho.Logger, sm *services.ServiceManager, httpMetrics *health.HTTPMetrics) *Middleware {
	return &Middleware{
		cfg:          cfg,
		logger:       logger,
		authService:  sm.AuthService,
		cacheService: sm.CacheService,
		httpMetrics:  httpMetrics,
	}
}
