package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"cassa/internal/core"
	"cassa/internal/decode"
)

var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")
	ErrPayload   = errors.New("payload does not match entity kind")
)

// Store keeps both snapshots in memory and applies intents to them.
type Store struct {
	mu     sync.Mutex
	ledger core.LedgerSnapshot
	market core.MarketSnapshot
}

func New(ledger core.LedgerSnapshot, market core.MarketSnapshot) *Store {
	s := &Store{}
	s.ledger = copyLedger(ledger)
	s.market = copyMarket(market)
	return s
}

// NewFromFile seeds the store from a YAML or JSON document. A missing file
// yields a single default pool with a basic category set.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(defaultLedger(), core.MarketSnapshot{}), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(defaultLedger(), core.MarketSnapshot{}), nil
	}
	doc, err := decode.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ledger, err := doc.Ledger()
	if err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	market, err := doc.MarketSnapshot()
	if err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	return New(ledger, market), nil
}

func defaultLedger() core.LedgerSnapshot {
	return core.LedgerSnapshot{
		Pools: []core.CashPool{{ID: "main", Name: "Caisse principale"}},
		Categories: []core.Category{
			{ID: "fund", Kind: core.Inflow, Label: "Fond de caisse"},
			{ID: "sales", Kind: core.Inflow, Label: "Ventes"},
			{ID: "purchases", Kind: core.Outflow, Label: "Achats"},
		},
		Members: []core.TeamMember{{ID: "admin", Name: "Admin", Role: core.RoleAdmin}},
	}
}

// LoadLedger returns a copy of the ledger snapshot.
func (s *Store) LoadLedger(_ context.Context) (core.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLedger(s.ledger), nil
}

// LoadMarkets returns a copy of the market snapshot.
func (s *Store) LoadMarkets(_ context.Context) (core.MarketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMarket(s.market), nil
}

// Execute applies one intent.
func (s *Store) Execute(ctx context.Context, in core.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch in.Entity {
	case core.EntityPool:
		return apply(&s.ledger.Pools, in, func(p core.CashPool) string { return p.ID })
	case core.EntityCategory:
		return apply(&s.ledger.Categories, in, func(c core.Category) string { return c.ID })
	case core.EntityMovement:
		return apply(&s.ledger.Movements, in, func(m core.Movement) string { return m.ID })
	case core.EntityMember:
		return apply(&s.ledger.Members, in, func(m core.TeamMember) string { return m.ID })
	case core.EntityMarket:
		return apply(&s.market.Markets, in, func(m core.Market) string { return m.ID })
	case core.EntityExhibitor:
		return apply(&s.market.Exhibitors, in, func(x core.Exhibitor) string { return x.ID })
	case core.EntityParticipation:
		return apply(&s.market.Participations, in, func(p core.Participation) string { return p.ID })
	default:
		return core.ErrUnknownEntity
	}
}

func apply[T any](list *[]T, in core.Intent, id func(T) string) error {
	idx := -1
	for i, item := range *list {
		if id(item) == in.ID {
			idx = i
			break
		}
	}

	if in.Op == core.OpDelete {
		if idx < 0 {
			return fmt.Errorf("%s %s: %w", in.Entity, in.ID, ErrNotFound)
		}
		*list = append((*list)[:idx], (*list)[idx+1:]...)
		return nil
	}

	v, ok := in.Payload.(T)
	if !ok {
		return fmt.Errorf("%s %s: %w", in.Entity, in.ID, ErrPayload)
	}
	switch in.Op {
	case core.OpCreate:
		if idx >= 0 {
			return fmt.Errorf("%s %s: %w", in.Entity, in.ID, ErrDuplicate)
		}
		*list = append(*list, v)
	case core.OpUpdate:
		if idx < 0 {
			return fmt.Errorf("%s %s: %w", in.Entity, in.ID, ErrNotFound)
		}
		(*list)[idx] = v
	}
	return nil
}

func copyLedger(in core.LedgerSnapshot) core.LedgerSnapshot {
	return core.LedgerSnapshot{
		Pools:      append([]core.CashPool(nil), in.Pools...),
		Categories: append([]core.Category(nil), in.Categories...),
		Movements:  append([]core.Movement(nil), in.Movements...),
		Members:    append([]core.TeamMember(nil), in.Members...),
	}
}

func copyMarket(in core.MarketSnapshot) core.MarketSnapshot {
	return core.MarketSnapshot{
		Markets:        append([]core.Market(nil), in.Markets...),
		Exhibitors:     append([]core.Exhibitor(nil), in.Exhibitors...),
		Participations: append([]core.Participation(nil), in.Participations...),
	}
}
