// Package ratelimit paces browser actions against the provider. Scrolling
// and navigating too quickly is the fastest route to an automation wall,
// so every driver action that touches the network takes a token first.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if an action is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another action
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if an action can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			// Small sleep to prevent busy waiting
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxActions  int
	actions     []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxActions int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize: windowSize,
		maxActions: maxActions,
		actions:    make([]time.Time, 0, maxActions),
	}
}

// Allow checks if an action can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.dropExpired(now)

	if len(sw.actions) < sw.maxActions {
		sw.actions = append(sw.actions, now)
		return true
	}

	return false
}

// Wait blocks until an action is allowed
func (sw *SlidingWindow) Wait() {
	for !sw.Allow() {
		sw.mu.Lock()
		if len(sw.actions) > 0 {
			oldest := sw.actions[0]
			timeToWait := sw.windowSize - time.Since(oldest)
			sw.mu.Unlock()

			if timeToWait > 0 {
				time.Sleep(timeToWait)
			}
		} else {
			sw.mu.Unlock()
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset clears all recorded actions
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.actions = sw.actions[:0]
}

// dropExpired removes actions outside the sliding window
func (sw *SlidingWindow) dropExpired(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.actions) && sw.actions[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(sw.actions, sw.actions[i:])
		sw.actions = sw.actions[:len(sw.actions)-i]
	}
}
