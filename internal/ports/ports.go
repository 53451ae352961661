package ports

import (
	"context"

	"cassa/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerLoader hands the engine a snapshot of every pool, category,
	// movement and member.
	LedgerLoader interface {
		LoadLedger(ctx context.Context) (core.LedgerSnapshot, error)
	}

	// MarketLoader hands the engine a snapshot of markets, exhibitors and
	// participations.
	MarketLoader interface {
		LoadMarkets(ctx context.Context) (core.MarketSnapshot, error)
	}

	// Store loads snapshots and executes intents against the same data.
	Store interface {
		LedgerLoader
		MarketLoader
		core.Executor
	}
)
