package llm

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter(t *testing.T) {
	t.Run("exhausts then refills with time", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
		rl := newRateLimiterWithClock(6, clock.Now)

		for i := 0; i < 6; i++ {
			require.True(t, rl.tryAcquire(), "attempt %d", i+1)
		}
		assert.False(t, rl.tryAcquire())

		clock.Advance(10 * time.Second)
		assert.True(t, rl.tryAcquire())
		assert.False(t, rl.tryAcquire())

		clock.Advance(time.Hour)
		for i := 0; i < 6; i++ {
			require.True(t, rl.tryAcquire(), "refilled attempt %d", i+1)
		}
		assert.False(t, rl.tryAcquire(), "refill is capped at capacity")
	})

	t.Run("reports time until the next token", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
		rl := newRateLimiterWithClock(60, clock.Now)
		for i := 0; i < 60; i++ {
			require.Zero(t, rl.reserve())
		}

		clock.Advance(400 * time.Millisecond)
		assert.Equal(t, 600*time.Millisecond, rl.reserve())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() {
			done <- rl.wait(ctx)
		}()

		time.Sleep(10 * time.Millisecond)
		cancel()

		err := <-done
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter canceled")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("default rate limit", func(t *testing.T) {
		rl := newRateLimiter(0)
		for i := 0; i < DefaultRateLimit; i++ {
			require.True(t, rl.tryAcquire(), "Expected default rate limit to allow %d requests", DefaultRateLimit)
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
		rl := newRateLimiterWithClock(100, clock.Now)

		var acquired atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					if rl.tryAcquire() {
						acquired.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(100), acquired.Load())
	})
}
