package service

import "errors"

var (
	// ErrValidation: missing or malformed input, rejected before any I/O.
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound: no account for the email, or the principal behind a
	// refresh token no longer exists.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials: the password check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken: the refresh token is unknown, expired, already
	// rotated, or cryptographically invalid. Deliberately one error for all
	// of those; callers learn nothing about which case they hit.
	ErrInvalidToken = errors.New("invalid refresh token")
)
