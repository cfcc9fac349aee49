package services

import "errors"

var (
	// ErrInvalidInput is returned before any request when required fields
	// are missing.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownUser means the session has no resolved user id yet.
	ErrUnknownUser = errors.New("current user is not known")

	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrIdentityResolution wraps a failed /auth/me after a token was
	// obtained. It never fails the login or register itself.
	ErrIdentityResolution = errors.New("identity resolution failed")
)
