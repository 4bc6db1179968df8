package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the envelope format is invalid or its signature doesn't match
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken indicates the envelope has expired
	ErrExpiredToken = errors.New("session token has expired")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("session token is missing")
)
