package external

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"spotsapi.app/internal/ports"
)

const defaultMinInterval = 1 * time.Second

// IntervalRateLimiter enforces a minimum interval between requests to the
// same provider. State is shared across callers: concurrent enrichment of
// different spots still spaces out requests per provider.
type IntervalRateLimiter struct {
	mu        sync.Mutex
	limiters  map[ports.Provider]*rate.Limiter
	intervals map[ports.Provider]time.Duration
	fallback  time.Duration
}

// NewIntervalRateLimiter creates a rate limiter with per-provider minimum
// intervals. Providers missing from the map use the package default.
func NewIntervalRateLimiter(intervals map[ports.Provider]time.Duration) *IntervalRateLimiter {
	return &IntervalRateLimiter{
		limiters:  make(map[ports.Provider]*rate.Limiter),
		intervals: intervals,
		fallback:  defaultMinInterval,
	}
}

// Wait blocks until the provider may issue its next request. It returns an
// error only when the context is cancelled first.
func (l *IntervalRateLimiter) Wait(ctx context.Context, provider ports.Provider) error {
	return l.limiterFor(provider).Wait(ctx)
}

func (l *IntervalRateLimiter) limiterFor(provider ports.Provider) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[provider]; ok {
		return limiter
	}

	interval := l.fallback
	if configured, ok := l.intervals[provider]; ok && configured > 0 {
		interval = configured
	}

	// Burst of one: the first call passes immediately, each subsequent call
	// waits out the full interval.
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	l.limiters[provider] = limiter
	return limiter
}
