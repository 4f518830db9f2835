package api

import (
	"commerce_server/api/auth"
	"commerce_server/api/health"
	"commerce_server/api/orders"
	"commerce_server/api/products"

	"github.com/go-chi/chi/v5"
)

type routerManager struct {
	productRoutes *products.ProductRoutesManager
	healthRoutes  *health.HealthRoutesManager
	authRoutes    *auth.AuthRoutesManager
	orderRoutes   *orders.OrderRoutesManager
}

func NewRouterManager(
	productRoutes *products.ProductRoutesManager,
	healthRoutes *health.HealthRoutesManager,
	authRoutes *auth.AuthRoutesManager,
	orderRoutes *orders.OrderRoutesManager,
) *routerManager {
	return &routerManager{
		productRoutes: productRoutes,
		healthRoutes:  healthRoutes,
		authRoutes:    authRoutes,
		orderRoutes:   orderRoutes,
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	rm.productRoutes.RegisterRoutes(r)
	rm.healthRoutes.RegisterRoutes(r)
	rm.authRoutes.RegisterRoutes(r)
	rm.orderRoutes.RegisterRoutes(r)
}
