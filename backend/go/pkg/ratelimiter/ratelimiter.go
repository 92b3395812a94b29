package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow returns true if the request is allowed.
	Allow() bool
}

// KeyedLimiter hands out one limiter per key, e.g. per client IP.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	factory  func() RateLimiter
	idleTTL  time.Duration
	now      func() time.Time
	lastGC   time.Time
}

type entry struct {
	limiter  RateLimiter
	lastSeen time.Time
}

// NewKeyedLimiter creates a KeyedLimiter. Limiters idle for longer than idleTTL are evicted.
func NewKeyedLimiter(factory func() RateLimiter, idleTTL time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
		lastGC:   time.Now(),
	}
}

// Allow reports whether a request for key may proceed.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: k.factory()}
		k.limiters[key] = e
	}
	e.lastSeen = now
	if k.idleTTL > 0 && now.Sub(k.lastGC) > k.idleTTL {
		for id, v := range k.limiters {
			if now.Sub(v.lastSeen) > k.idleTTL {
				delete(k.limiters, id)
			}
		}
		k.lastGC = now
	}
	limiter := e.limiter
	k.mu.Unlock()
	return limiter.Allow()
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
