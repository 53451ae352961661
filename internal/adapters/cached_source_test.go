package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cassa/internal/cache"
	"cassa/internal/core"
	"cassa/internal/memory"
)

type countingStore struct {
	*memory.Store
	ledgerLoads int
	marketLoads int
}

func (c *countingStore) LoadLedger(ctx context.Context) (core.LedgerSnapshot, error) {
	c.ledgerLoads++
	return c.Store.LoadLedger(ctx)
}

func (c *countingStore) LoadMarkets(ctx context.Context) (core.MarketSnapshot, error) {
	c.marketLoads++
	return c.Store.LoadMarkets(ctx)
}

func newSource() (*CachedSource, *countingStore) {
	store := &countingStore{Store: memory.New(core.LedgerSnapshot{
		Pools: []core.CashPool{{ID: "p", Name: "P"}},
	}, core.MarketSnapshot{})}
	src := NewCachedSource(store,
		cache.NewLRUCache[core.LedgerSnapshot](4, time.Hour),
		cache.NewLRUCache[core.MarketSnapshot](4, time.Hour))
	return src, store
}

func TestCachedSourceServesFromCache(t *testing.T) {
	ctx := context.Background()
	src, store := newSource()

	_, err := src.LoadLedger(ctx)
	require.NoError(t, err)
	_, err = src.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.ledgerLoads)
}

func TestCachedSourceInvalidatesOnExecute(t *testing.T) {
	ctx := context.Background()
	src, store := newSource()

	_, _ = src.LoadLedger(ctx)
	_, _ = src.LoadMarkets(ctx)

	require.NoError(t, src.Execute(ctx, core.CreateIntent(core.EntityPool, "q", core.CashPool{ID: "q", Name: "Q"})))
	snap, err := src.LoadLedger(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Pools, 2)
	assert.Equal(t, 2, store.ledgerLoads)

	_, _ = src.LoadMarkets(ctx)
	assert.Equal(t, 1, store.marketLoads, "ledger writes keep the market snapshot")

	err = src.Execute(ctx, core.DeleteIntent(core.EntityExhibitor, "missing"))
	require.Error(t, err)
	_, _ = src.LoadMarkets(ctx)
	assert.Equal(t, 2, store.marketLoads, "failed writes still invalidate")
}

func TestCachedSourceInvalidatePurgesBoth(t *testing.T) {
	ctx := context.Background()
	src, store := newSource()

	_, _ = src.LoadLedger(ctx)
	_, _ = src.LoadMarkets(ctx)
	src.Invalidate()
	_, _ = src.LoadLedger(ctx)
	_, _ = src.LoadMarkets(ctx)

	assert.Equal(t, 2, store.ledgerLoads)
	assert.Equal(t, 2, store.marketLoads)
}
