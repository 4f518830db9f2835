package auth

import (
	"commerce_server/api/middleware"
	"commerce_server/lib"
	"net/http"

	"github.com/MonkyMars/gecho"
)

func (ar *AuthRoutesManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		ar.logger.Debug("Logout requested", gecho.Field("jti", claims.Jti))
	}

	if err := ar.authService.Logout(r.Context(), user); err != nil {
		lib.WriteError(w, ar.logger, err)
		return
	}

	lib.JSON(w, http.StatusOK, "Logged out successfully.", nil)
}
