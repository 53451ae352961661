package backend

import (
	"context"
	"time"

	"cassa/internal/adapters"
	"cassa/internal/cache"
	"cassa/internal/core"
	"cassa/internal/ports"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds what the entry points need to run the engine.
type BackendResult struct {
	// Store serves cached snapshots and applies intents directly.
	Store ports.Store
	// Executor is where plans are sent: the AMQP client when publishing is
	// enabled, Store otherwise.
	Executor core.Executor
	// Caches cleans the snapshot caches; run it for long-lived processes.
	Caches  *cache.Manager
	Cleanup CleanupFunc

	cached *adapters.CachedSource
}

// Invalidate drops the cached snapshots so the next load reads the store.
func (r *BackendResult) Invalidate() {
	if r != nil && r.cached != nil {
		r.cached.Invalidate()
	}
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Seed document: the memory backend's data, or imported into an empty
	// SQLite database.
	SeedFile string

	CacheTTL  time.Duration
	CacheSize int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
