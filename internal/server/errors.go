// Package server provides the HTTP API for resume section generation.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-writer/internal/dispatch"
	"github.com/jonathan/resume-writer/internal/sections"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a rejected credential.
type ErrUnauthorized struct{}

func (e *ErrUnauthorized) Error() string {
	return "Unauthorized"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		inputErr      *sections.InputError
		unauthorized  *ErrUnauthorized
		dispatchErr   *dispatch.DispatchError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &dispatchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing message for err. Completion failures are reported as AI service errors.
func errorMessage(err error) string {
	var dispatchErr *dispatch.DispatchError
	if errors.As(err, &dispatchErr) {
		return "AI service error: " + dispatchErr.Error()
	}
	return err.Error()
}
