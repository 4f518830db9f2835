package auth

import (
	"commerce_server/lib"
	"commerce_server/structs"
	"net/http"

	"github.com/MonkyMars/gecho"
)

func (ar *AuthRoutesManager) HandleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.RegisterRequest](r, ar.validator)
	if err != nil {
		ar.logger.Warn("Failed to extract and validate request body", gecho.Field("error", err))
		lib.WriteError(w, ar.logger, err)
		return
	}

	user, token, err := ar.authService.Register(r.Context(), body)
	if err != nil {
		lib.WriteError(w, ar.logger, err)
		return
	}

	lib.JSON(w, http.StatusCreated, "User created successfully.", lib.Envelope{
		"user":  structs.ToUserResponse(user),
		"token": token,
	})
}
