// Package ratelimit provides request pacing for outbound API calls, either
// in-process (golang.org/x/time/rate) or shared across replicas through Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ErrQuotaExhausted is returned by Wait when no request slot frees up before
// the context deadline. The context itself is still live at that point.
var ErrQuotaExhausted = errors.New("ratelimit: no request slot before deadline")

// Limiter paces callers.
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done.
	Wait(ctx context.Context) error
}

// Local is an in-process token bucket.
type Local struct {
	limiter *rate.Limiter
}

var _ Limiter = (*Local)(nil)

// New creates a local rate limiter.
// requestsPerMinute specifies how many requests are allowed per minute.
func New(requestsPerMinute int) *Local {
	// Convert requests per minute to rate per second
	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10 // Allow burst of 10% of rate limit
	if burst < 1 {
		burst = 1
	}

	return &Local{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// NewWithBurst creates a local rate limiter with explicit burst.
func NewWithBurst(requestsPerSecond float64, burst int) *Local {
	return &Local{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Wait blocks until a token is available or the context is cancelled.
// It fails fast with ErrQuotaExhausted when the next token lies beyond ctx's deadline.
func (l *Local) Wait(ctx context.Context) error {
	err := l.limiter.Wait(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if _, ok := ctx.Deadline(); ok && l.limiter.Burst() > 0 {
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	}
	return err
}

// Allow reports whether an event may happen now.
func (l *Local) Allow() bool {
	return l.limiter.Allow()
}
