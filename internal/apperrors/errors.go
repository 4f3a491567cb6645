// Package apperrors defines the error kinds surfaced by the core and their HTTP mapping.
//
// Every error returned by services wraps exactly one of the sentinel kinds below, so callers
// can classify it with errors.Is while still showing the wrapped human-readable message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned by signup when the email is already taken.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredential is returned when the password does not match.
	ErrInvalidCredential = errors.New("invalid credentials")
	// ErrInvalidTransition is returned for an illegal role change.
	ErrInvalidTransition = errors.New("invalid role transition")
	// ErrForbidden is returned when the actor lacks the privilege for an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation error")
	// ErrConflict is returned when a conditional update lost a race.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable wraps failures of the record store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStorageUnavailable wraps failures of the file storage.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Wrap attaches a detail message to one of the sentinel kinds.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Validation is shorthand for Wrap(ErrValidation, ...).
func Validation(format string, args ...any) error {
	return Wrap(ErrValidation, format, args...)
}

// Store wraps a driver error as ErrStoreUnavailable, keeping the cause in the chain.
func Store(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// Storage wraps a file storage error as ErrStorageUnavailable, keeping the cause in the chain.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

// HTTPStatus maps an error to the status code a handler should respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that is safe to show to the client.
// Collaborator failures and unknown errors get a generic text, the rest keep their detail.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusServiceUnavailable:
		if errors.Is(err, ErrStorageUnavailable) {
			return "file storage unavailable"
		}
		return "database unavailable"
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}
