package util

import "errors"

// Sentinel errors shared by the catalog client, the store and the enrichment workflow
var (
	// ErrNotFound indicates no candidates or an absent entity. Recoverable:
	// the workflow offers a manual fallback.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the catalog API throttled the request.
	// Never retried automatically.
	ErrRateLimited = errors.New("rate limited")

	// ErrPersistence indicates a repository write failed
	ErrPersistence = errors.New("persistence failure")

	// ErrAbandoned marks an item the operator walked away from. Not a failure.
	ErrAbandoned = errors.New("abandoned by operator")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
