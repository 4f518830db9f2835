package products

import (
	"commerce_server/api/middleware"
	"commerce_server/lib"
	"commerce_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type ProductRoutesManager struct {
	logger         *gecho.Logger
	productService *services.ProductService
	validator      *lib.Validator
	mw             *middleware.Middleware
}

func NewProductRoutesManager(logger *gecho.Logger, sm *services.ServiceManager, mw *middleware.Middleware) *ProductRoutesManager {
	return &ProductRoutesManager{
		logger:         logger,
		productService: sm.ProductService,
		validator:      sm.Validator,
		mw:             mw,
	}
}

func (p *ProductRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Use(p.mw.UserAuthMiddleware)

		r.Get("/", p.FetchAllProducts)
		r.Post("/", p.CreateProduct)
		r.Get("/{id}", p.FetchProductByID)
		r.Put("/{id}", p.UpdateProduct)
		r.Delete("/{id}", p.DeleteProduct)
	})
}
