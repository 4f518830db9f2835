package lib

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MonkyMars/gecho"
)

// Envelope is a response body: a top-level message plus named payload keys.
type Envelope map[string]any

// JSON writes status and body; body always gets a message key.
func JSON(w http.ResponseWriter, status int, message string, payload Envelope) {
	body := Envelope{"message": message}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps a service error to its status code and envelope.
func WriteError(w http.ResponseWriter, logger *gecho.Logger, err error) {
	var (
		validationErr *ValidationError
		authnErr      *AuthenticationError
		authzErr      *AuthorizationError
		notFoundErr   *NotFoundError
		stateErr      *InvalidStateError
		internalErr   *InternalError
	)

	switch {
	case errors.As(err, &validationErr):
		JSON(w, validationErr.StatusCode(), "Validation error.", Envelope{"errors": validationErr.Errors})
	case errors.As(err, &authnErr):
		payload := Envelope{}
		if len(authnErr.Fields) > 0 {
			payload["errors"] = authnErr.Fields
		}
		JSON(w, authnErr.StatusCode(), authnErr.Message, payload)
	case errors.As(err, &authzErr):
		JSON(w, authzErr.StatusCode(), authzErr.Message, nil)
	case errors.As(err, &notFoundErr):
		JSON(w, notFoundErr.StatusCode(), notFoundErr.Message, nil)
	case errors.As(err, &stateErr):
		JSON(w, stateErr.StatusCode(), stateErr.Message, nil)
	case errors.As(err, &internalErr):
		if logger != nil {
			logger.Error(internalErr.Message, gecho.Field("error", internalErr.Cause), gecho.WithCallerSkip(3))
		}
		cause := ""
		if internalErr.Cause != nil {
			cause = internalErr.Cause.Error()
		}
		JSON(w, internalErr.StatusCode(), internalErr.Message, Envelope{"error": cause})
	default:
		if logger != nil {
			logger.Error("Unhandled error", gecho.Field("error", err), gecho.WithCallerSkip(3))
		}
		JSON(w, http.StatusInternalServerError, "Internal server error.", Envelope{"error": err.Error()})
	}
}
