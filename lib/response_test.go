package lib

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteError(t *testing.T) {
	verr := NewValidationError()
	verr.Add("email", "The email field is required.")

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", verr, http.StatusUnprocessableEntity, "Validation error."},
		{"authentication", &AuthenticationError{Message: "Unauthenticated."}, http.StatusUnauthorized, "Unauthenticated."},
		{"authorization", &AuthorizationError{Message: "Forbidden."}, http.StatusForbidden, "Forbidden."},
		{"not found", fmt.Errorf("lookup: %w", &NotFoundError{Message: "Order not found."}), http.StatusNotFound, "Order not found."},
		{"invalid state", &InvalidStateError{Message: "Cannot update a paid order."}, http.StatusBadRequest, "Cannot update a paid order."},
		{"internal", Internal("Failed.", errors.New("boom")), http.StatusInternalServerError, "Failed."},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, nil, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.message, decode(t, rec)["message"])
		})
	}
}

func TestWriteError_Payloads(t *testing.T) {
	verr := NewValidationError()
	verr.Add("order_lines.0.id", "The selected order_lines.0.id is invalid.")

	rec := httptest.NewRecorder()
	WriteError(rec, nil, verr)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Equal(t, []any{"The selected order_lines.0.id is invalid."}, errs["order_lines.0.id"])

	rec = httptest.NewRecorder()
	WriteError(rec, nil, Internal("Error while creating the order.", errors.New("deadlock detected")))
	assert.Equal(t, "deadlock detected", decode(t, rec)["error"])
}

func TestInternal_KeepsDomainErrors(t *testing.T) {
	notFound := &NotFoundError{Message: "Order not found."}
	assert.Same(t, notFound, Internal("wrapped", notFound))

	err := Internal("wrapped", errors.New("io"))
	var ierr *InternalError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "wrapped: io", err.Error())
}

func TestJSON_MergesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, "Created.", Envelope{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"message": "Created.", "id": "1"}, decode(t, rec))
}

func TestMapPgError(t *testing.T) {
	assert.Nil(t, MapPgError(nil))
	assert.True(t, IsNotFound(MapPgError(fmt.Errorf("scan: %w", sql.ErrNoRows))))
	assert.True(t, IsUniqueViolation(MapPgError(&pgconn.PgError{Code: "23505"})))
	assert.True(t, IsNotFound(MapPgError(&pgconn.PgError{Code: "23503"})))
	assert.Equal(t, "plain", MapPgError(errors.New("plain")).Error())
}
