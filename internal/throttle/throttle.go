// Package throttle provides request-level rate limiting for HTTP endpoints
// using the token bucket algorithm, keyed by client IP. It shapes raw request
// volume in front of the login endpoint; judging authentication failures is
// the lockout package's job, not this one's.
package throttle

import "time"

// Limiter defines the request throttling contract. Implementations must be
// safe for concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be allowed.
	// Returns whether the request is allowed and state for populating
	// response headers.
	Allow(key string) (allowed bool, d Decision)

	// Close stops background goroutines and releases resources.
	Close()
}

// Decision contains throttle state for populating response headers.
type Decision struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Approximate tokens remaining
	ResetAt    time.Time     // When the bucket will be full again
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
