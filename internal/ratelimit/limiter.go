// Package ratelimit provides token-bucket rate limiters and per-caller run budgets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Well-known limiter keys.
const (
	KeySanityCheck = "sanity-check"
	KeyCloudWatch  = "CloudWatch"
)

// DefaultRates returns the request rates (per second) used when none are configured.
func DefaultRates() map[string]float64 {
	return map[string]float64{
		KeySanityCheck: 5,
		KeyCloudWatch:  20,
	}
}

// Limiter rate-limits named routes or upstream services using token buckets.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewLimiter creates a limiter with the given per-key rates. Burst equals the
// rate, with a minimum of one.
func NewLimiter(rates map[string]float64) *Limiter {
	limiters := make(map[string]*rate.Limiter, len(rates))
	for key, r := range rates {
		burst := int(r)
		if burst < 1 {
			burst = 1
		}
		limiters[key] = rate.NewLimiter(rate.Limit(r), burst)
	}
	return &Limiter{limiters: limiters}
}

func (l *Limiter) get(key string) *rate.Limiter {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.limiters[key]
}

// Wait blocks until a token is available for key, or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	limiter := l.get(key)
	if limiter == nil {
		return nil // unknown key = no limit
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", key, err)
	}
	return nil
}

// Allow reports whether a token is available for key right now.
func (l *Limiter) Allow(key string) bool {
	limiter := l.get(key)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}
