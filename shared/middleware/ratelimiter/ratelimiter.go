// Package ratelimiter implements per-identity token buckets.
package ratelimiter

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// bucket is a token bucket for one identity
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	rate       float64 // tokens per second
	lastRefill time.Time
}

func (b *bucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// UserRateLimiter keeps one bucket per identity. Buckets idle for longer
// than the expiration are dropped.
type UserRateLimiter struct {
	buckets    *cache.Cache
	mu         sync.Mutex
	rate       float64
	capacity   float64
	expiration time.Duration
	now        func() time.Time
}

func New(rate float64, capacity float64, expiration time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		buckets:    cache.New(expiration, expiration),
		rate:       rate,
		capacity:   capacity,
		expiration: expiration,
		now:        time.Now,
	}
}

func (l *UserRateLimiter) getBucket(identity string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(identity); ok {
		b := v.(*bucket)
		// touch to extend the idle expiration
		l.buckets.SetDefault(identity, b)
		return b
	}
	b := &bucket{
		tokens:     l.capacity,
		capacity:   l.capacity,
		rate:       l.rate,
		lastRefill: l.now(),
	}
	l.buckets.SetDefault(identity, b)
	return b
}

// Allow takes one token from identity's bucket.
func (l *UserRateLimiter) Allow(identity string) bool {
	return l.getBucket(identity).allow(l.now())
}

// Stop drops all buckets.
func (l *UserRateLimiter) Stop() {
	l.buckets.Flush()
}

func OnceInSecond() *UserRateLimiter { return New(1, 1, time.Hour) }
func OnceInMinute() *UserRateLimiter { return New(1.0/60, 1, time.Hour) }
func Rps10() *UserRateLimiter        { return New(10, 10, time.Hour) }
func Rps100() *UserRateLimiter       { return New(100, 100, time.Hour) }
