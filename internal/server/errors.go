package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-builder/internal/checkpoint"
	"github.com/jonathan/resume-builder/internal/conversation"
	"github.com/jonathan/resume-builder/internal/storage"
)

// ErrNotFound indicates a resource the user owns was not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound    *ErrNotFound
		validation  *ErrValidation
		persistence *checkpoint.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrMissingUser):
		return http.StatusUnauthorized
	case errors.Is(err, conversation.ErrThreadForbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound),
		errors.Is(err, conversation.ErrThreadNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.As(err, &persistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
