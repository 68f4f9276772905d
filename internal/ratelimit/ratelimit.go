// Package ratelimit throttles requests per client key with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry is the bucket for a single key and when it was last used.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter allows up to limit requests per window for each key, with bursts of
// up to burst requests. Idle keys are dropped by the cleanup loop.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	burst   int
	window  time.Duration
	now     func() time.Time // injectable clock for testing
	stop    chan struct{}
	once    sync.Once
}

// New creates a Limiter that allows limit requests per window per key. A
// burst below one means burst equals limit.
func New(limit, burst int, window time.Duration) *Limiter {
	if burst < 1 {
		burst = limit
	}
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Limit returns the configured requests per window.
func (l *Limiter) Limit() int { return l.limit }

// Allow reports whether a request for key may proceed and consumes a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		every := rate.Every(l.window / time.Duration(max(l.limit, 1)))
		e = &entry{limiter: rate.NewLimiter(every, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RetryAfter returns how long a client should wait for the next token.
func (l *Limiter) RetryAfter() time.Duration {
	d := l.window / time.Duration(max(l.limit, 1))
	if d < time.Second {
		return time.Second
	}
	return d
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Cleanup drops keys idle for longer than maxIdle.
func (l *Limiter) Cleanup(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxIdle)
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until Stop is called.
func (l *Limiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup(2 * interval)
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
