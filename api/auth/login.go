package auth

import (
	"commerce_server/lib"
	"commerce_server/structs"
	"net/http"

	"github.com/MonkyMars/gecho"
)

func (ar *AuthRoutesManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.LoginRequest](r, ar.validator)
	if err != nil {
		ar.logger.Warn("Failed to extract request body", gecho.Field("error", err))
		lib.WriteError(w, ar.logger, err)
		return
	}

	user, token, err := ar.authService.Login(r.Context(), body)
	if err != nil {
		ar.logger.Warn("Login failed", gecho.Field("error", err))
		lib.WriteError(w, ar.logger, err)
		return
	}

	lib.JSON(w, http.StatusOK, "Login successful.", lib.Envelope{
		"user":  structs.ToUserResponse(user),
		"token": token,
	})
}
