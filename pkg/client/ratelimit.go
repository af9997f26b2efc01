package client

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles fetches and adds a jittered pause before each one
type RateLimiter struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration

	// Jitter picks the pause; nil means uniform in [minDelay, maxDelay].
	Jitter func(lo, hi time.Duration) time.Duration
}

// NewRateLimiter creates a new rate limiter.
// requestsPerSecond <= 0 means no rate cap, only the jitter delay applies.
func NewRateLimiter(requestsPerSecond int, minDelay, maxDelay time.Duration) *RateLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until a request can be made, then sleeps a random delay in
// [minDelay, maxDelay]. It returns early with ctx's error on cancellation.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.limiter.Wait(ctx); err != nil {
		return err
	}

	pick := rl.Jitter
	if pick == nil {
		pick = jitter
	}
	delay := pick(rl.minDelay, rl.maxDelay)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
