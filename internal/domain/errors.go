package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrSeriesNotFound indicates the catalog has no entry for the id
	ErrSeriesNotFound = errors.New("series not found")

	// ErrNoSources indicates source resolution returned no usable variant
	ErrNoSources = errors.New("no stream sources available")

	// ErrSessionStopped indicates the session has already committed
	ErrSessionStopped = errors.New("playback session already stopped")

	// ErrNotResolving indicates a retry was requested outside the error state
	ErrNotResolving = errors.New("session is not awaiting source resolution")
)
