package ratelimiter

import "errors"

// Package-level error definitions for rate limiter operations.
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrEmptySubject      = errors.New("empty rate limit subject")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
