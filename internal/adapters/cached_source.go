package adapters

import (
	"context"
	"log/slog"

	"cassa/internal/cache"
	"cassa/internal/core"
	"cassa/internal/ports"
)

const (
	ledgerKey = "ledger"
	marketKey = "markets"
)

// CachedSource adapts a ports.Store so snapshot loads are served from cache.
// Every executed intent drops the cached snapshot of its domain, whether
// the write succeeded or not, so the next load sees the store's truth.
type CachedSource struct {
	store   ports.Store
	ledgers cache.Cache[core.LedgerSnapshot]
	markets cache.Cache[core.MarketSnapshot]
}

func NewCachedSource(store ports.Store, ledgers cache.Cache[core.LedgerSnapshot], markets cache.Cache[core.MarketSnapshot]) *CachedSource {
	return &CachedSource{store: store, ledgers: ledgers, markets: markets}
}

// LoadLedger implements ports.LedgerLoader.
func (a *CachedSource) LoadLedger(ctx context.Context) (core.LedgerSnapshot, error) {
	if snap, ok := a.ledgers.Get(ledgerKey); ok {
		slog.DebugContext(ctx, "Ledger snapshot served from cache")
		return snap, nil
	}
	snap, err := a.store.LoadLedger(ctx)
	if err != nil {
		return core.LedgerSnapshot{}, err
	}
	a.ledgers.Set(ledgerKey, snap)
	return snap, nil
}

// LoadMarkets implements ports.MarketLoader.
func (a *CachedSource) LoadMarkets(ctx context.Context) (core.MarketSnapshot, error) {
	if snap, ok := a.markets.Get(marketKey); ok {
		slog.DebugContext(ctx, "Market snapshot served from cache")
		return snap, nil
	}
	snap, err := a.store.LoadMarkets(ctx)
	if err != nil {
		return core.MarketSnapshot{}, err
	}
	a.markets.Set(marketKey, snap)
	return snap, nil
}

// Execute implements core.Executor.
func (a *CachedSource) Execute(ctx context.Context, in core.Intent) error {
	defer a.invalidate(in.Entity)
	return a.store.Execute(ctx, in)
}

// Invalidate drops both cached snapshots. Callers use it when the store
// changes behind the adapter, such as after publishing to a worker.
func (a *CachedSource) Invalidate() {
	a.ledgers.Purge()
	a.markets.Purge()
}

func (a *CachedSource) invalidate(entity core.EntityKind) {
	switch entity {
	case core.EntityMarket, core.EntityExhibitor, core.EntityParticipation:
		a.markets.Invalidate(marketKey)
	default:
		a.ledgers.Invalidate(ledgerKey)
	}
}
