package market

import (
	"fmt"

	"cassa/internal/core"
)

var order = map[core.MarketStatus]int{
	core.MarketPlanned: 0,
	core.MarketOpen:    1,
	core.MarketClosed:  2,
}

// IsForwardTransition reports whether from → to is the next step of
// planned → open → closed.
func IsForwardTransition(from, to core.MarketStatus) bool {
	f, ok1 := order[from]
	t, ok2 := order[to]
	return ok1 && ok2 && t == f+1
}

// NextStatus returns the state following s, false once closed.
func NextStatus(s core.MarketStatus) (core.MarketStatus, bool) {
	switch s {
	case core.MarketPlanned:
		return core.MarketOpen, true
	case core.MarketOpen:
		return core.MarketClosed, true
	default:
		return "", false
	}
}

// SetMarketStatus accepts any valid status, including backward or skipping
// moves; only the value itself is checked. Callers that want forward-only
// behavior use NextStatus or IsForwardTransition.
func (e *Engine) SetMarketStatus(id string, status core.MarketStatus) (core.Plan, error) {
	m, ok := e.markets[id]
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "market not found")
	}
	if !status.Valid() {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "status", fmt.Sprintf("unknown market status %q", status))
	}
	m.Status = status
	return core.NewPlan("set market status", core.UpdateIntent(core.EntityMarket, m.ID, m)), nil
}

// Advance moves a market one step forward.
func (e *Engine) Advance(id string) (core.Plan, error) {
	m, ok := e.markets[id]
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "market not found")
	}
	next, ok := NextStatus(m.Status)
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "status", "market is already closed")
	}
	return e.SetMarketStatus(id, next)
}
