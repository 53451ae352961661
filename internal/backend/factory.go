package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cassa/internal/adapters"
	"cassa/internal/amqp"
	"cassa/internal/cache"
	"cassa/internal/core"
	"cassa/internal/decode"
	"cassa/internal/memory"
	"cassa/internal/ports"
	"cassa/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedFile != "" {
		if err := f.importSeed(ctx, repo, config.SeedFile); err != nil {
			repo.Close()
			return nil, err
		}
	}

	result := f.wrap(repo, config)
	cleanups := []CleanupFunc{repo.Close}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, applying intents directly", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Executor = client
			cleanups = append([]CleanupFunc{client.Close}, cleanups...)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for _, c := range cleanups {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", result.Executor != result.Store)

	return result, nil
}

// importSeed loads the seed document into a database that has no pool yet.
func (f *DefaultFactory) importSeed(ctx context.Context, repo *storage.SQLiteRepository, path string) error {
	current, err := repo.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}
	if len(current.Pools) > 0 {
		f.logger.Debug("Database already populated, seed file ignored", "seed_file", path)
		return nil
	}

	doc, err := decode.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	ledger, err := doc.Ledger()
	if err != nil {
		return fmt.Errorf("failed to decode seed ledger: %w", err)
	}
	markets, err := doc.MarketSnapshot()
	if err != nil {
		return fmt.Errorf("failed to decode seed markets: %w", err)
	}
	if err := repo.ImportSnapshots(ctx, ledger, markets); err != nil {
		return err
	}

	f.logger.Info("Seed file imported",
		"seed_file", path,
		"pools", len(ledger.Pools),
		"movements", len(ledger.Movements),
		"markets", len(markets.Markets))
	return nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return f.wrap(store, config), nil
}

// wrap puts the snapshot cache in front of store.
func (f *DefaultFactory) wrap(store ports.Store, config Config) *BackendResult {
	size := config.CacheSize
	if size < 1 {
		size = 1
	}
	ledgers := cache.NewLRUCache[core.LedgerSnapshot](size, config.CacheTTL)
	markets := cache.NewLRUCache[core.MarketSnapshot](size, config.CacheTTL)

	manager := cache.NewManager(f.logger)
	manager.Register(ledgers)
	manager.Register(markets)

	cached := adapters.NewCachedSource(store, ledgers, markets)
	return &BackendResult{
		Store:    cached,
		Executor: cached,
		Caches:   manager,
		cached:   cached,
	}
}
