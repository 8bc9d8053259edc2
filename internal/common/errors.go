// Package common defines shared sentinel errors used across the layers of
// orgvault. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrorForbidden = errors.New("forbidden")

	// Validation errors (bad field values, unknown credential kind,
	// out-of-range pagination).
	ErrorValidation = errors.New("validation error")

	// Crypto errors (corrupt ciphertext, wrong key, tampering).
	ErrorDecryptionFailed = errors.New("decryption failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
