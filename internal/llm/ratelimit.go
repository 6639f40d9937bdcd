package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultRateLimit is the requests-per-minute budget when none is configured.
const DefaultRateLimit = 60

// rateLimiter is a token bucket refilled lazily from the elapsed time, so it
// needs no background goroutine.
type rateLimiter struct {
	now        func() time.Time
	lastRefill time.Time
	interval   time.Duration
	tokens     int
	capacity   int
	mu         sync.Mutex
}

// newRateLimiter creates a limiter allowing requestsPerMinute calls per minute.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	return newRateLimiterWithClock(requestsPerMinute, time.Now)
}

func newRateLimiterWithClock(requestsPerMinute int, now func() time.Time) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}
	return &rateLimiter{
		now:        now,
		lastRefill: now(),
		interval:   time.Minute / time.Duration(requestsPerMinute),
		tokens:     requestsPerMinute,
		capacity:   requestsPerMinute,
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay := rl.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// tryAcquire takes a token without blocking.
func (rl *rateLimiter) tryAcquire() bool {
	return rl.reserve() == 0
}

// reserve takes a token and returns zero, or returns how long until the next
// token is due.
func (rl *rateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if elapsed := now.Sub(rl.lastRefill); elapsed >= rl.interval {
		gained := int(elapsed / rl.interval)
		rl.tokens = min(rl.capacity, rl.tokens+gained)
		rl.lastRefill = rl.lastRefill.Add(time.Duration(gained) * rl.interval)
	}

	if rl.tokens > 0 {
		rl.tokens--
		return 0
	}
	return rl.interval - now.Sub(rl.lastRefill)
}
