// Package common defines the sentinel errors shared across the server layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Startup errors. ErrConfigInvalid aborts the process: without at least
	// one parsable account credential the pool cannot serve uploads.
	ErrConfigInvalid = errors.New("invalid configuration")

	// Request-boundary errors.
	ErrUnauthorized = errors.New("unauthorized")

	// Upload-path errors.
	ErrSourceUnreachable  = errors.New("content source unreachable")
	ErrUpstreamFailure    = errors.New("upstream failure")
	ErrNoAccountAvailable = errors.New("no account available")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
