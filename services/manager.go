package services

import (
	"commerce_server/lib"
	"commerce_server/repository"
	"commerce_server/structs"

	"github.com/MonkyMars/gecho"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type ServiceManager struct {
	Validator      *lib.Validator
	Metrics        *Metrics
	AuthService    *AuthService
	CacheService   *CacheService
	HealthService  *HealthService
	ProductService *ProductService
	OrderService   *OrderService
}

// NewServiceManager wires every service. redisClient may be nil, which
// disables caching and rate limiting.
func NewServiceManager(logger *gecho.Logger, cfg *structs.Config, store repository.Store, db Pinger, redisClient *redis.Client, reg prometheus.Registerer) *ServiceManager {
	val := lib.NewValidator()
	metrics := NewMetrics(reg)

	cacheService := NewCacheService(logger, cfg, redisClient)
	authService := NewAuthService(cfg, logger, store, cacheService, metrics, val)
	healthService := NewHealthService(logger, db, cacheService)
	productService := NewProductService(logger, store, cacheService, val)
	orderService := NewOrderService(logger, store, metrics)

	return &ServiceManager{
		Validator:      val,
		Metrics:        metrics,
		AuthService:    authService,
		CacheService:   cacheService,
		HealthService:  healthService,
		ProductService: productService,
		OrderService:   orderService,
	}
}
