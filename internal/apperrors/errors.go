package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when a user, appointment, prescription or notification does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrInvalidCredentials is returned on unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a bearer token is malformed, forged or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned on ownership or role violations.
	ErrForbidden = errors.New("permission denied")
	// ErrValidation is returned when request input is rejected.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyCancelled is returned when cancelling a cancelled appointment.
	ErrAlreadyCancelled = errors.New("appointment already cancelled")
	// ErrInvalidTransition is returned when a status change is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// HTTPStatus maps a (possibly wrapped) domain error to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
