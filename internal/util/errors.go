package util

import "errors"

// Error taxonomy for the adaptive learning core. Services wrap these with
// fmt.Errorf("%w: reason") so callers can match with errors.Is while still
// surfacing a human-readable reason.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrAttemptsExceeded   = errors.New("attempts exceeded")
	ErrAccessDenied       = errors.New("access denied")
	ErrUpstreamGeneration = errors.New("content generation failed")
	ErrPersistence        = errors.New("persistence failed")

	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
