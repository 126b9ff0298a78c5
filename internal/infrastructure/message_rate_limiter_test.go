package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageRateLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewMessageRateLimiter(1, 3)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("cust-1"), "message %d within burst", i+1)
	}
	assert.False(t, rl.Allow("cust-1"))
	assert.InDelta(t, time.Second, rl.WaitTime("cust-1"), float64(10*time.Millisecond))

	// other customers are independent
	assert.True(t, rl.Allow("cust-2"))

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, rl.Allow("cust-1"))
	assert.False(t, rl.Allow("cust-1"))
}

func TestMessageRateLimiter_CleanupAndReset(t *testing.T) {
	now := time.Now()
	rl := NewMessageRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.GetStats()["active_customers"])

	rl.Reset("a")
	assert.True(t, rl.Allow("a"))

	now = now.Add(11 * time.Minute)
	rl.cleanup()
	assert.Equal(t, 0, rl.GetStats()["active_customers"])
}
