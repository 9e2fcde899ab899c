package ai

import (
	"sync"
	"time"
)

// MinCallSpacing is the minimum delay between successive external calls.
// The generation endpoint throttles aggressively, so the generator and the
// judge share a single limiter.
const MinCallSpacing = 2 * time.Second

// RateLimiter serializes external calls so that at least a minimum interval
// passes between them. One instance is shared by every component that talks
// to the LLM endpoint.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a limiter enforcing the given minimum spacing.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Wait blocks until the minimum spacing from the previous call has elapsed,
// then records the current call. Callers invoke it immediately before each
// external request.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		if elapsed := r.now().Sub(r.last); elapsed < r.interval {
			r.sleep(r.interval - elapsed)
		}
	}
	r.last = r.now()
}
