// Package cache provides a generic in-memory LRU cache and a manager
// that sweeps expired entries from all registered caches.
package cache

import "time"

// Cleaner is any cache that can evict its own expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs one background sweep over every registered cache.
type Manager struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Not safe to call after
// StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup launches the sweep goroutine.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.run(interval)
}

func (m *Manager) run(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, cache := range m.caches {
				cache.CleanExpired()
			}
		case <-m.stop:
			return
		}
	}
}

// Stop terminates the sweep and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}
