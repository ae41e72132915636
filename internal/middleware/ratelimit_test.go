package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Buckets are per IP
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.evictIdle(time.Now().Add(2 * idleTTL))

	assert.Empty(t, rl.limiters)
	assert.True(t, rl.Allow("10.0.0.1"), "evicted IP starts with a full bucket")
}
