package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketBurstAndRefill(t *testing.T) {
	now := time.Now()
	tb := NewTokenBucket(1, 2)
	tb.now = func() time.Time { return now }
	tb.last = now

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	kl := NewKeyedLimiter(func() RateLimiter { return NewTokenBucket(0, 1) }, time.Minute)

	assert.True(t, kl.Allow("10.0.0.1"))
	assert.False(t, kl.Allow("10.0.0.1"))
	assert.True(t, kl.Allow("10.0.0.2"))
	assert.Equal(t, 2, kl.Len())
}

func TestKeyedLimiterEvictsIdleKeys(t *testing.T) {
	now := time.Now()
	kl := NewKeyedLimiter(func() RateLimiter { return NewTokenBucket(0, 1) }, time.Minute)
	kl.now = func() time.Time { return now }
	kl.lastGC = now

	kl.Allow("a")
	now = now.Add(2 * time.Minute)
	kl.Allow("b")

	assert.Equal(t, 1, kl.Len())
}
