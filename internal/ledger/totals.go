package ledger

import (
	"cassa/internal/core"
)

// CategoryTotal is the realized sum and count for one category.
type CategoryTotal struct {
	Category core.Category
	Total    float64
	Count    int
}

// UserTotal is the realized inflow and outflow of one team member.
type UserTotal struct {
	Member   core.TeamMember
	Inflows  float64
	Outflows float64
	Count    int
}

// CategoryTotals sums realized movements of kind per category. Categories
// with no matching movement are left out; order follows the registry.
func (c *Calculator) CategoryTotals(kind core.Kind, movements []core.Movement) []CategoryTotal {
	type acc struct {
		total float64
		count int
	}
	byCat := make(map[string]*acc)
	for _, m := range movements {
		if m.Kind != kind || !m.IsRealized() {
			continue
		}
		a, ok := byCat[m.CategoryID]
		if !ok {
			a = &acc{}
			byCat[m.CategoryID] = a
		}
		a.total += m.Amount
		a.count++
	}

	var out []CategoryTotal
	for _, cat := range c.store.registry.ByKind(kind) {
		a, ok := byCat[cat.ID]
		if !ok || a.count == 0 {
			continue
		}
		out = append(out, CategoryTotal{Category: cat, Total: a.total, Count: a.count})
	}
	return out
}

// UserTotals sums realized movements per team member, skipping members
// without any.
func (c *Calculator) UserTotals(movements []core.Movement) []UserTotal {
	byUser := make(map[string]*UserTotal)
	for _, m := range movements {
		if !m.IsRealized() {
			continue
		}
		u, ok := byUser[m.UserID]
		if !ok {
			u = &UserTotal{}
			byUser[m.UserID] = u
		}
		switch m.Kind {
		case core.Inflow:
			u.Inflows += m.Amount
		case core.Outflow:
			u.Outflows += m.Amount
		}
		u.Count++
	}

	var out []UserTotal
	for _, member := range c.store.members {
		u, ok := byUser[member.ID]
		if !ok || u.Count == 0 {
			continue
		}
		u.Member = member
		out = append(out, *u)
	}
	return out
}
