// Package common defines shared constants and sentinel errors used across
// the OpenPasswd server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Authentication errors.
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrTokenCreation      = errors.New("token creation error")

	// Registration / ownership errors.
	ErrEmailAlreadyTaken   = errors.New("email already in use")
	ErrInvalidAccountGroup = errors.New("invalid account group")

	// Cryptographic errors.
	ErrInvalidHashFormat    = errors.New("invalid password hash format")
	ErrCipherAuthentication = errors.New("ciphertext authentication failed")

	// Throttling.
	ErrTooManyRequests = errors.New("too many requests")
)
