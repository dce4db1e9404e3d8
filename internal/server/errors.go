package server

import (
	"fmt"
	"net/http"
)

// ErrEmailAlreadyExists indicates the email is already registered.
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials.
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrDocumentNotFound indicates the document does not exist or belongs to
// another owner.
type ErrDocumentNotFound struct {
	ID string
}

func (e *ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("document not found: %s", e.ID)
}

// ErrBackendUnavailable indicates the durable backend rejected the call.
type ErrBackendUnavailable struct {
	Reason string
}

func (e *ErrBackendUnavailable) Error() string {
	return "backend unavailable: " + e.Reason
}

// ErrBackendFailed indicates the durable backend failed the call.
type ErrBackendFailed struct {
	Reason string
}

func (e *ErrBackendFailed) Error() string {
	return "backend failure: " + e.Reason
}

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrDocumentNotFound:
		return http.StatusNotFound
	case *ErrBackendUnavailable:
		return http.StatusServiceUnavailable
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
