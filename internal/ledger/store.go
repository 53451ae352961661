package ledger

import (
	"cassa/internal/core"
)

// Store owns one loaded ledger snapshot. It copies what it is given, so
// later changes to the caller's slices are not observed.
type Store struct {
	pools     []core.CashPool
	movements []core.Movement
	members   []core.TeamMember
	registry  *Registry

	poolIdx     map[string]int
	movementIdx map[string]int
	memberIdx   map[string]int
}

func NewStore(snap core.LedgerSnapshot) *Store {
	s := &Store{
		pools:       append([]core.CashPool(nil), snap.Pools...),
		movements:   append([]core.Movement(nil), snap.Movements...),
		members:     append([]core.TeamMember(nil), snap.Members...),
		registry:    NewRegistry(snap.Categories),
		poolIdx:     make(map[string]int, len(snap.Pools)),
		movementIdx: make(map[string]int, len(snap.Movements)),
		memberIdx:   make(map[string]int, len(snap.Members)),
	}
	for i, p := range s.pools {
		s.poolIdx[p.ID] = i
	}
	for i, m := range s.movements {
		s.movementIdx[m.ID] = i
	}
	for i, m := range s.members {
		s.memberIdx[m.ID] = i
	}
	return s
}

func (s *Store) Registry() *Registry { return s.registry }

func (s *Store) Pool(id string) (core.CashPool, bool) {
	i, ok := s.poolIdx[id]
	if !ok {
		return core.CashPool{}, false
	}
	return s.pools[i], true
}

func (s *Store) Pools() []core.CashPool {
	return append([]core.CashPool(nil), s.pools...)
}

func (s *Store) Category(id string) (core.Category, bool) {
	return s.registry.Lookup(id)
}

func (s *Store) Movement(id string) (core.Movement, bool) {
	i, ok := s.movementIdx[id]
	if !ok {
		return core.Movement{}, false
	}
	return s.movements[i], true
}

// Movements returns every movement in insertion order.
func (s *Store) Movements() []core.Movement {
	return append([]core.Movement(nil), s.movements...)
}

func (s *Store) Member(id string) (core.TeamMember, bool) {
	i, ok := s.memberIdx[id]
	if !ok {
		return core.TeamMember{}, false
	}
	return s.members[i], true
}

func (s *Store) Members() []core.TeamMember {
	return append([]core.TeamMember(nil), s.members...)
}

// MemberName resolves a user id to its display name, empty when unknown.
func (s *Store) MemberName(id string) string {
	if m, ok := s.Member(id); ok {
		return m.Name
	}
	return ""
}

// Admins returns the members holding the admin role.
func (s *Store) Admins() []core.TeamMember {
	var out []core.TeamMember
	for _, m := range s.members {
		if m.Role == core.RoleAdmin {
			out = append(out, m)
		}
	}
	return out
}
