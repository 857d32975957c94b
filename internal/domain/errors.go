package domain

import "errors"

// Sentinel errors surfaced by services and mapped to HTTP status codes at the
// handler boundary.
var (
	ErrNotFound                = errors.New("not found")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrDuplicatePhone          = errors.New("phone already registered")
	ErrValidation              = errors.New("validation failed")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrAccountDeactivated      = errors.New("account is deactivated")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrTokenMismatch           = errors.New("refresh token does not match stored token")
	ErrInsufficientStock       = errors.New("insufficient available stock")
	ErrInsufficientReservation = errors.New("insufficient reserved stock")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrForbidden               = errors.New("operation not permitted")
)
