package orders

import (
	"commerce_server/api/middleware"
	"commerce_server/lib"
	"commerce_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type OrderRoutesManager struct {
	logger       *gecho.Logger
	orderService *services.OrderService
	validator    *lib.Validator
	mw           *middleware.Middleware
}

func NewOrderRoutesManager(logger *gecho.Logger, sm *services.ServiceManager, mw *middleware.Middleware) *OrderRoutesManager {
	return &OrderRoutesManager{
		logger:       logger,
		orderService: sm.OrderService,
		validator:    sm.Validator,
		mw:           mw,
	}
}

func (orm *OrderRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(orm.mw.UserAuthMiddleware)

		r.Get("/", orm.ListOrders)
		r.Post("/", orm.CreateOrder)
		r.Get("/{id}", orm.GetOrder)
		r.Put("/{id}", orm.UpdateOrder)
		r.Delete("/{id}", orm.DeleteOrder)
	})
}
