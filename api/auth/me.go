package auth

import (
	"commerce_server/api/middleware"
	"commerce_server/lib"
	"commerce_server/structs"
	"net/http"
)

func (ar *AuthRoutesManager) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())

	current, err := ar.authService.Current(user)
	if err != nil {
		lib.WriteError(w, ar.logger, err)
		return
	}

	lib.JSON(w, http.StatusOK, "User retrieved successfully.", lib.Envelope{
		"user": structs.ToUserResponse(current),
	})
}
