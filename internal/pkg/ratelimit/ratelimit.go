// Package ratelimit enforces a minimum delay between requests to shared
// public APIs (Nominatim and Overpass fair-use policies).
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces requests per key. A key is typically an upstream host.
type Limiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	minDelay time.Duration
}

// New creates a limiter with the given minimum delay between requests that
// share a key.
func New(minDelay time.Duration) *Limiter {
	return &Limiter{last: make(map[string]time.Time), minDelay: minDelay}
}

// Wait blocks until the key's delay has elapsed, then records the request.
// It returns early with ctx.Err() if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	now := time.Now()
	var wait time.Duration
	if last, ok := l.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < l.minDelay {
			wait = l.minDelay - elapsed
		}
	}
	// Reserve the slot before sleeping so concurrent callers queue up
	// behind each other instead of all waking at once.
	l.last[key] = now.Add(wait)
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
