package middleware

import (
	"commerce_server/lib"
	"commerce_server/structs"
	"commerce_server/structs/tables"
	"context"
	"net/http"

	"github.com/MonkyMars/gecho"
)

// Context keys for storing user data in request context
type contextKey string

const (
	UserContextKey   contextKey = "user"
	ClaimsContextKey contextKey = "claims"
)

// UserAuthMiddleware protects routes to only logged-in users
func (mw *Middleware) UserAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := lib.BearerToken(r)
		if !ok {
			mw.logger.Debug("Missing bearer token", gecho.Field("path", r.URL.Path))
			lib.WriteError(w, mw.logger, &lib.AuthenticationError{Message: "Unauthenticated."})
			return
		}

		user, claims, err := mw.authService.Authenticate(r.Context(), token)
		if err != nil {
			mw.logger.Warn("Rejected bearer token", gecho.Field("error", err), gecho.Field("path", r.URL.Path))
			lib.WriteError(w, mw.logger, err)
			return
		}

		// Add user and claims to request context
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, ClaimsContextKey, claims)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext is a helper function to extract the user from request context
func GetUserFromContext(ctx context.Context) (*tables.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*tables.User)
	return user, ok
}

// GetClaimsFromContext is a helper function to extract the claims from request context
func GetClaimsFromContext(ctx context.Context) (*structs.AuthClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*structs.AuthClaims)
	return claims, ok
}
