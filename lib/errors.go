package lib

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Database errors
var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// Auth errors
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
)

// Order errors
var ErrInvalidState = errors.New("invalid state")

// SQLState extracts the SQLSTATE code from either supported postgres driver.
func SQLState(err error) string {
	var driverErr pgdriver.Error
	if errors.As(err, &driverErr) {
		return driverErr.Field('C')
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	switch SQLState(err) {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case "P0002": // no_data_found
		return ErrNotFound
	}
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrConflict)
}

// ValidationError carries every violated field with its messages.
type ValidationError struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationError() *ValidationError {
	return &ValidationError{Errors: map[string][]string{}}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Errors))
}

func (e *ValidationError) Add(field, message string) {
	e.Errors[field] = append(e.Errors[field], message)
}

func (e *ValidationError) Has(field string) bool {
	_, ok := e.Errors[field]
	return ok
}

// OrNil returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) StatusCode() int { return http.StatusUnprocessableEntity }

type AuthenticationError struct {
	Message string
	Fields  map[string][]string
}

func (e *AuthenticationError) Error() string   { return e.Message }
func (e *AuthenticationError) StatusCode() int { return http.StatusUnauthorized }
func (e *AuthenticationError) Unwrap() error   { return ErrInvalidCredentials }

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string   { return e.Message }
func (e *AuthorizationError) StatusCode() int { return http.StatusForbidden }
func (e *AuthorizationError) Unwrap() error   { return ErrForbidden }

type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string   { return e.Message }
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error   { return ErrNotFound }

type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string   { return e.Message }
func (e *InvalidStateError) StatusCode() int { return http.StatusBadRequest }
func (e *InvalidStateError) Unwrap() error   { return ErrInvalidState }

// InternalError wraps an unexpected failure; Message is shown to the client with the cause.
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e *InternalError) StatusCode() int { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error   { return e.Cause }

// Internal wraps cause unless it already is a domain error.
func Internal(message string, cause error) error {
	var sc statusCoder
	if errors.As(cause, &sc) {
		return cause
	}
	return &InternalError{Message: message, Cause: cause}
}

type statusCoder interface {
	StatusCode() int
}
