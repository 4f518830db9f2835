package auth

import (
	"commerce_server/api/middleware"
	"commerce_server/lib"
	"commerce_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AuthRoutesManager struct {
	logger      *gecho.Logger
	authService *services.AuthService
	validator   *lib.Validator
	mw          *middleware.Middleware
}

func NewAuthRoutesManager(logger *gecho.Logger, sm *services.ServiceManager, mw *middleware.Middleware) *AuthRoutesManager {
	return &AuthRoutesManager{
		logger:      logger,
		authService: sm.AuthService,
		validator:   sm.Validator,
		mw:          mw,
	}
}

func (arm *AuthRoutesManager) RegisterRoutes(r chi.Router) {
	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(arm.mw.AuthRateLimit())
		r.Post("/register", arm.HandleRegister)
		r.Post("/login", arm.HandleLogin)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(arm.mw.UserAuthMiddleware)
		r.Post("/logout", arm.HandleLogout)
		r.Get("/user", arm.HandleMe)
	})
}
