package api

import (
	"errors"
	"fmt"
	"net/http"

	"portrait/internal/models"
)

// ErrUnauthorized is returned when the server refuses the operator's credentials.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a structured error returned by the HTTP API.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// Unwrap maps the HTTP status onto the shared error taxonomy.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	switch {
	case e.Status == http.StatusBadRequest:
		return models.ErrInvalidInput
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status >= 500:
		return models.ErrStoreUnavailable
	default:
		return nil
	}
}
