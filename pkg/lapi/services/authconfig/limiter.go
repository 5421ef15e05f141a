package authconfig

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxTrackedKeys bounds the registry; past it the map is reset and every
// client starts with a full bucket again.
const maxTrackedKeys = 10000

// LimiterRegistry keeps one token bucket per client key.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewLimiterRegistry returns nil when perMinute is not positive; a nil
// registry allows everything.
func NewLimiterRegistry(perMinute, burst int) *LimiterRegistry {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &LimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

func (r *LimiterRegistry) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	if len(r.limiters) >= maxTrackedKeys {
		r.limiters = make(map[string]*rate.Limiter)
	}
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = l
	return l
}

func (r *LimiterRegistry) Allow(key string) bool {
	if r == nil {
		return true
	}
	return r.get(key).Allow()
}

// RetryAfter is the time for one token to refill.
func (r *LimiterRegistry) RetryAfter() time.Duration {
	if r == nil || r.limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(r.limit))
}
