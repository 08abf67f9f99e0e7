package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mimosa-app/mimosa/internal/gemini"
	"github.com/mimosa-app/mimosa/internal/logger"
)

// ErrRetriesExhausted marks a call that hit the rate limit on every
// attempt. Callers convert it to their documented fallback.
var ErrRetriesExhausted = errors.New("maximum retries reached")

const (
	// minimum spacing between consecutive outbound model calls
	defaultMinInterval = 2 * time.Second
	// total attempts per logical call, rate-limit failures only
	defaultMaxAttempts = 3
)

// RateLimiter routes every outbound model call through two policies:
// minimum spacing between consecutive calls, and exponential backoff on
// rate-limit failures. The clock is injectable so the policies are
// testable without real sleeps.
type RateLimiter struct {
	minInterval time.Duration
	maxAttempts int

	mu          sync.Mutex
	nextAllowed time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRateLimiter creates a limiter with the production spacing (2s) and
// attempt budget (3).
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		minInterval: defaultMinInterval,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// NewRateLimiterWithClock creates a limiter driven by the given clock
// functions, for tests.
func NewRateLimiterWithClock(minInterval time.Duration, maxAttempts int, now func() time.Time, sleep func(time.Duration)) *RateLimiter {
	return &RateLimiter{
		minInterval: minInterval,
		maxAttempts: maxAttempts,
		now:         now,
		sleep:       sleep,
	}
}

// NextAllowed returns the earliest instant the next outbound call may be
// dispatched.
func (rl *RateLimiter) NextAllowed() time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.nextAllowed
}

// Do dispatches fn under the limiter's policies. Rate-limit failures are
// retried up to the attempt budget with backoff starting at the minimum
// interval and doubling per attempt; any other failure propagates
// immediately. Exhausting the budget returns ErrRetriesExhausted wrapping
// the last failure.
func (rl *RateLimiter) Do(fn func() error) error {
	retryDelay := rl.minInterval
	var lastErr error

	for attempt := 0; attempt < rl.maxAttempts; attempt++ {
		rl.pace()

		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, gemini.ErrRateLimited) {
			return err
		}

		lastErr = err
		if attempt < rl.maxAttempts-1 {
			logger.Warnf("Rate limit hit, waiting %s before retry", retryDelay)
			rl.sleep(retryDelay)
			retryDelay *= 2
		}
	}

	return fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

// pace blocks until the minimum spacing since the previous dispatch has
// elapsed, then claims the next slot.
func (rl *RateLimiter) pace() {
	rl.mu.Lock()
	now := rl.now()
	if wait := rl.nextAllowed.Sub(now); wait > 0 {
		rl.mu.Unlock()
		rl.sleep(wait)
		rl.mu.Lock()
		now = rl.now()
	}
	rl.nextAllowed = now.Add(rl.minInterval)
	rl.mu.Unlock()
}
