package infrastructure

import (
	"context"
	"sync"
	"time"
)

// MessageRateLimiter implements token bucket rate limiting per customer
type MessageRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	rate      float64 // tokens per second
	maxTokens float64 // burst capacity
	idleTTL   time.Duration
	now       func() time.Time
}

type tokenBucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewMessageRateLimiter creates a rate limiter with specified rate and burst
// rate: messages per second allowed
// burst: maximum burst capacity
func NewMessageRateLimiter(rate float64, burst int) *MessageRateLimiter {
	return &MessageRateLimiter{
		buckets:   make(map[string]*tokenBucket),
		rate:      rate,
		maxTokens: float64(burst),
		idleTTL:   10 * time.Minute,
		now:       time.Now,
	}
}

// Run evicts idle buckets until ctx is done.
func (rl *MessageRateLimiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// Allow checks if a customer can send a message (consumes 1 token if allowed)
func (rl *MessageRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, exists := rl.buckets[key]
	if !exists {
		rl.buckets[key] = &tokenBucket{
			tokens:     rl.maxTokens - 1,
			lastUpdate: now,
		}
		return true
	}

	rl.refill(bucket, now)
	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}

// WaitTime returns how long to wait before next message is allowed
func (rl *MessageRateLimiter) WaitTime(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[key]
	if !exists || rl.rate <= 0 {
		return 0
	}

	elapsed := rl.now().Sub(bucket.lastUpdate).Seconds()
	currentTokens := bucket.tokens + elapsed*rl.rate
	if currentTokens >= 1 {
		return 0
	}

	needed := 1 - currentTokens
	return time.Duration(needed / rl.rate * float64(time.Second))
}

func (rl *MessageRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

func (rl *MessageRateLimiter) refill(b *tokenBucket, now time.Time) {
	b.tokens += now.Sub(b.lastUpdate).Seconds() * rl.rate
	if b.tokens > rl.maxTokens {
		b.tokens = rl.maxTokens
	}
	b.lastUpdate = now
}

func (rl *MessageRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.lastUpdate) > rl.idleTTL {
			delete(rl.buckets, key)
		}
	}
}

// GetStats returns rate limiter statistics
func (rl *MessageRateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_customers": len(rl.buckets),
		"rate":             rl.rate,
		"burst":            rl.maxTokens,
	}
}
