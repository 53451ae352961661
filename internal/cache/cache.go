// Package cache holds snapshot caches kept outside the engine. The engine
// never sees them; adapters read through them and invalidate on writes.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is the get/set/invalidate contract snapshot readers rely on.
type Cache[T any] interface {
	Get(key string) (T, bool)

	// Set stores data under key with the cache's default TTL.
	Set(key string, data T)

	// SetWithTTL stores data under key for ttl.
	SetWithTTL(key string, data T, ttl time.Duration)

	// Invalidate drops key; it is a no-op when the key is absent.
	Invalidate(key string)

	// Purge drops every entry.
	Purge()

	Size() int
}

// Cleaner is implemented by caches that can drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup of the registered caches.
type Manager struct {
	caches []Cleaner
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// Register adds a cache to the manager for cleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// CleanOnce sweeps every registered cache and returns how many entries went away.
func (m *Manager) CleanOnce() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run sweeps the caches every interval until ctx is done. It always
// returns nil so it can sit in an errgroup next to other workers.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanOnce(); n > 0 {
				m.logger.Debug("Cache cleanup", "removed", n, "caches", len(m.caches))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
