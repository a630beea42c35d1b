package service

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/contacts-go/internal/core/domain"
	"github.com/yndnr/contacts-go/pkg/cmap"
)

// RateLimiterRegistry keeps one token-bucket limiter per client key.
type RateLimiterRegistry struct {
	limiters *cmap.Map[string, *limiterEntry]
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// NewRateLimiterRegistry creates a registry allowing perSecond requests per
// key with the given burst. Limiters idle for longer than idleTTL are dropped by Sweep.
func NewRateLimiterRegistry(perSecond float64, burst int, idleTTL time.Duration) *RateLimiterRegistry {
	if burst <= 0 {
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &RateLimiterRegistry{
		limiters: cmap.New[string, *limiterEntry](),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  idleTTL,
	}
}

// GetOrCreate retrieves an existing limiter or creates a new one.
func (r *RateLimiterRegistry) GetOrCreate(key string) *rate.Limiter {
	entry := r.limiters.GetOrCreate(key, func() *limiterEntry {
		return &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
	})
	entry.lastSeen.Store(time.Now().UnixNano())
	return entry.limiter
}

// Allow consumes one token for key, returning ErrRateLimited when none is left.
func (r *RateLimiterRegistry) Allow(key string) error {
	limiter := r.GetOrCreate(key)
	if limiter.Allow() {
		return nil
	}

	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()

	return domain.ErrRateLimited.WithDetails("retry after " + delay.Round(time.Millisecond).String())
}

// Sweep removes limiters that have not been used within the idle TTL.
// It returns the number of removed limiters.
func (r *RateLimiterRegistry) Sweep() int {
	cutoff := time.Now().Add(-r.idleTTL).UnixNano()
	return r.limiters.DeleteFunc(func(_ string, e *limiterEntry) bool {
		return e.lastSeen.Load() < cutoff
	})
}

// Len returns the number of tracked keys.
func (r *RateLimiterRegistry) Len() int {
	return r.limiters.Len()
}
