// Package ratelimit throttles clients that keep failing authentication.
//
// Each source address gets a token bucket. A terminal authentication
// failure takes a token; a client with an empty bucket is refused before
// its credential is evaluated at all. Successful requests cost nothing.
package ratelimit

import (
	"errors"
)

// ErrRateLimitExceeded is returned when a client has used up its failure budget.
var ErrRateLimitExceeded = errors.New("ratelimit: too many failed authentication attempts")

// FailureLimiter tracks authentication failures per client address.
// Implementations must be safe for concurrent use.
type FailureLimiter interface {
	// Allow reports whether addr may attempt authentication. It does not
	// consume anything.
	Allow(addr string) bool

	// RecordFailure charges one failed attempt to addr.
	RecordFailure(addr string)

	// Close releases resources held by the limiter.
	Close()
}

// NoopLimiter never throttles.
type NoopLimiter struct{}

// Allow always returns true.
func (NoopLimiter) Allow(string) bool { return true }

// RecordFailure does nothing.
func (NoopLimiter) RecordFailure(string) {}

// Close does nothing.
func (NoopLimiter) Close() {}

var _ FailureLimiter = NoopLimiter{}
