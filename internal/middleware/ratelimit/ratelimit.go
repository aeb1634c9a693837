// Package ratelimit throttles clients with a fixed per-minute window per IP.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiter settings.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows 60 mutating requests per minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter counts requests per client IP in one-minute windows. Idle
// clients are evicted by a background sweep.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	limit int

	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	started  time.Time
	requests int
}

// NewLimiter starts the limiter and its cleanup goroutine. Call Stop on
// shutdown.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		windows: make(map[string]*window),
		limit:   cfg.RequestsPerMinute,
		stop:    make(chan struct{}),
	}
	go l.sweep(cfg.CleanupInterval)
	return l
}

// Allow reports whether a request from the given client fits in the
// current window.
func (l *Limiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[clientIP]
	if !ok || now.Sub(w.started) > time.Minute {
		l.windows[clientIP] = &window{started: now, requests: 1}
		return true
	}

	w.requests++
	return w.requests <= l.limit
}

// ActiveClients returns how many clients are currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, w := range l.windows {
		if w.started.Before(cutoff) {
			delete(l.windows, ip)
		}
	}
}
