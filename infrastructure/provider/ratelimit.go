package provider

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces a fixed-window call budget on an external API.
// Check fails immediately when the budget is spent — there is no blocking
// or backoff; the caller surfaces the error.
type RateLimiter struct {
	maxCalls int
	window   time.Duration
	now      func() time.Time

	mu          sync.Mutex
	windowStart time.Time
	calls       int
}

// NewRateLimiter creates a RateLimiter allowing maxCalls per window.
func NewRateLimiter(maxCalls int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxCalls: maxCalls,
		window:   window,
		now:      time.Now,
	}
}

// WithClock overrides the limiter's clock. Used by tests.
func (r *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	r.now = now
	return r
}

// Check consumes one call from the current window. It returns an error
// wrapping ErrRateLimited when the window budget is exhausted.
func (r *RateLimiter) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollWindowLocked()

	if r.calls >= r.maxCalls {
		return fmt.Errorf("%w: %d calls in the last %s (limit %d)",
			ErrRateLimited, r.calls, r.window, r.maxCalls)
	}
	r.calls++
	return nil
}

// Remaining returns the number of calls left in the current window.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollWindowLocked()
	return r.maxCalls - r.calls
}

// Reset clears the current window.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = 0
	r.windowStart = r.now()
}

// rollWindowLocked starts a fresh window when the current one has elapsed.
func (r *RateLimiter) rollWindowLocked() {
	now := r.now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.calls = 0
	}
}
