// Package ratelimit provides a simple keyed rate limiter used to throttle
// credential-guessing on the authentication endpoints.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter maintains an independent token bucket per key (an email
// address or client IP). Buckets are created lazily on first use.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// NewKeyedLimiter creates a limiter allowing rps events per second with the
// given burst per key.
func NewKeyedLimiter(rps float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (kl *KeyedLimiter) limiter(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	l, ok := kl.limiters[key]
	if !ok {
		l = rate.NewLimiter(kl.rps, kl.burst)
		kl.limiters[key] = l
	}
	return l
}

// Allow reports whether an event for key may proceed now.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.limiter(key).Allow()
}

// Reset drops all buckets. Bounds memory on long-running processes; callers
// invoke it periodically.
func (kl *KeyedLimiter) Reset() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	kl.limiters = make(map[string]*rate.Limiter)
}
