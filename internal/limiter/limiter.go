// Package limiter throttles sign-in attempts per (address, client) pair.
package limiter

import (
	"context"
	"time"
)

// Limiter controls sign-in attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a sign-in is currently allowed and an optional retry-after.
	Allow(ctx context.Context, address string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful sign-in.
	Success(ctx context.Context, address string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, address string, ipHash []byte) (bool, time.Duration, error)
}
