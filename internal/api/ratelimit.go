package api

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a token bucket shared by every host: burst tokens up front,
// refilled at ratePerSec. Safe for concurrent use.
type rateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	ratePerSec float64
	lastRefill time.Time
}

func newRateLimiter(ratePerSec float64, burst int) *rateLimiter {
	return &rateLimiter{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		ratePerSec: ratePerSec,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done, returning how long it waited.
func (rl *rateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	for {
		wait := rl.take()
		if wait == 0 {
			return time.Since(start), nil
		}
		select {
		case <-ctx.Done():
			return time.Since(start), ctx.Err()
		case <-time.After(wait):
		}
	}
}

// take consumes a token and returns 0, or returns the time until one is available.
func (rl *rateLimiter) take() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	rl.tokens = min(rl.maxTokens, rl.tokens+now.Sub(rl.lastRefill).Seconds()*rl.ratePerSec)
	rl.lastRefill = now
	if rl.tokens >= 1 {
		rl.tokens--
		return 0
	}
	return time.Duration((1 - rl.tokens) / rl.ratePerSec * float64(time.Second))
}
