package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter counts events per key over a window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error)
}

// MemoryLimiter is a process-local fixed-window limiter backed by ulule's memory
// store. Expired counters are swept every CleanUpInterval.
type MemoryLimiter struct {
	store limiter.Store
}

// DefaultCleanUpInterval is how often the memory store drops expired counters.
const DefaultCleanUpInterval = 30 * time.Second

// NewMemoryLimiter returns an empty in-process limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return NewMemoryLimiterWithCleanUp(DefaultCleanUpInterval)
}

// NewMemoryLimiterWithCleanUp returns a limiter whose expired counters are evicted
// every interval.
func NewMemoryLimiterWithCleanUp(interval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "quotecalc",
		CleanUpInterval: interval,
	})}
}

// Allow counts an event for key and reports whether it fits within max per window.
func (l *MemoryLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, Reset: time.Now().Add(window)}, nil
	}
	lc, err := l.store.Get(ctx, key, limiter.Rate{Period: window, Limit: int64(max)})
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lc.Reached,
		Remaining: int(lc.Remaining),
		Reset:     time.Unix(lc.Reset, 0),
	}, nil
}
