package ledger

import (
	"cassa/internal/core"
)

// Calculator derives balances and views from a Store. Every method is a
// pure read: calling it twice on the same store yields the same result.
type Calculator struct {
	store *Store
	now   core.Clock
}

func NewCalculator(store *Store, now core.Clock) *Calculator {
	if now == nil {
		now = core.SystemClock
	}
	return &Calculator{store: store, now: now}
}

func (c *Calculator) Store() *Store { return c.store }

// MovementsForPool returns the movements of poolID in insertion order.
// An empty poolID returns the whole snapshot.
func (c *Calculator) MovementsForPool(poolID string) []core.Movement {
	all := c.store.movements
	if poolID == "" {
		return append([]core.Movement(nil), all...)
	}
	var out []core.Movement
	for _, m := range all {
		if m.PoolID == poolID {
			out = append(out, m)
		}
	}
	return out
}

// RealizedBalance is inflows minus outflows over realized movements only.
func (c *Calculator) RealizedBalance(poolID string) float64 {
	return sum(c.MovementsForPool(poolID), func(m core.Movement) bool { return m.IsRealized() })
}

// ProvisionalBalance is the forward-looking balance: every movement of the
// pool, realized and provisional alike.
func (c *Calculator) ProvisionalBalance(poolID string) float64 {
	return sum(c.MovementsForPool(poolID), func(core.Movement) bool { return true })
}

// PendingTotal sums provisional movements only.
func (c *Calculator) PendingTotal(poolID string) float64 {
	return sum(c.MovementsForPool(poolID), func(m core.Movement) bool { return !m.IsRealized() })
}

// PoolSummary is the pair of balances shown for one cash pool.
type PoolSummary struct {
	Pool        core.CashPool
	Realized    float64
	Provisional float64
	Pending     float64
	Count       int
}

// PoolSummaries computes balances for every pool in snapshot order.
func (c *Calculator) PoolSummaries() []PoolSummary {
	out := make([]PoolSummary, 0, len(c.store.pools))
	for _, p := range c.store.pools {
		out = append(out, PoolSummary{
			Pool:        p,
			Realized:    c.RealizedBalance(p.ID),
			Provisional: c.ProvisionalBalance(p.ID),
			Pending:     c.PendingTotal(p.ID),
			Count:       len(c.MovementsForPool(p.ID)),
		})
	}
	return out
}

// sum adds signed amounts without intermediate rounding.
func sum(movements []core.Movement, keep func(core.Movement) bool) float64 {
	total := 0.0
	for _, m := range movements {
		if keep(m) {
			total += m.Signed()
		}
	}
	return total
}
