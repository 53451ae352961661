package ledger

import (
	"strings"

	"cassa/internal/core"
)

// OpeningKeyword marks the category that receives opening balances.
const OpeningKeyword = "fond"

// Registry holds the inflow and outflow category namespaces.
type Registry struct {
	byID   map[string]core.Category
	byKind map[core.Kind][]core.Category
}

func NewRegistry(categories []core.Category) *Registry {
	r := &Registry{
		byID:   make(map[string]core.Category, len(categories)),
		byKind: make(map[core.Kind][]core.Category, 2),
	}
	for _, c := range categories {
		if _, dup := r.byID[c.ID]; dup {
			continue
		}
		r.byID[c.ID] = c
		r.byKind[c.Kind] = append(r.byKind[c.Kind], c)
	}
	return r
}

// ByKind returns the categories of kind in snapshot order.
func (r *Registry) ByKind(kind core.Kind) []core.Category {
	return append([]core.Category(nil), r.byKind[kind]...)
}

func (r *Registry) Lookup(id string) (core.Category, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// Label returns the category label, or the id itself when unknown.
func (r *Registry) Label(id string) string {
	if c, ok := r.byID[id]; ok {
		return c.Label
	}
	return id
}

// OpeningCategory picks the inflow category used to seed an opening balance:
// the first whose label contains "fond" (any case), else the first inflow one.
func (r *Registry) OpeningCategory() (core.Category, bool) {
	inflows := r.byKind[core.Inflow]
	for _, c := range inflows {
		if strings.Contains(strings.ToLower(c.Label), OpeningKeyword) {
			return c, true
		}
	}
	if len(inflows) > 0 {
		return inflows[0], true
	}
	return core.Category{}, false
}
