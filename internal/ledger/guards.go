package ledger

import (
	"fmt"

	"cassa/internal/core"
)

// Verdict is the outcome of a lifecycle guard. Reason is meant to be shown
// verbatim to the user.
type Verdict struct {
	Allowed bool
	Code    core.ReasonCode
	Reason  string
}

var allowed = Verdict{Allowed: true}

func blocked(code core.ReasonCode, format string, args ...any) Verdict {
	return Verdict{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Err converts a blocking verdict into a ConstraintViolation, nil when allowed.
func (v Verdict) Err(entity core.EntityKind, id string) error {
	if v.Allowed {
		return nil
	}
	return core.Violation(v.Code, entity, id, v.Reason)
}

// CanDeletePool blocks while any movement references the pool.
func (s *Store) CanDeletePool(poolID string) Verdict {
	n := 0
	for _, m := range s.movements {
		if m.PoolID == poolID {
			n++
		}
	}
	if n > 0 {
		return blocked(core.ReasonReferencedEntity, "cash pool is used by %d movement(s)", n)
	}
	return allowed
}

// CanDeleteCategory blocks while any movement of that category and kind exists.
func (s *Store) CanDeleteCategory(categoryID string) Verdict {
	cat, ok := s.registry.Lookup(categoryID)
	n := 0
	for _, m := range s.movements {
		if m.CategoryID != categoryID {
			continue
		}
		if ok && m.Kind != cat.Kind {
			continue
		}
		n++
	}
	if n > 0 {
		return blocked(core.ReasonReferencedEntity, "category is used by %d movement(s)", n)
	}
	return allowed
}

// CanDeleteMember blocks removal of the last admin and of members that
// movements are attributed to.
func (s *Store) CanDeleteMember(memberID string) Verdict {
	if s.isSoleAdmin(memberID) {
		return blocked(core.ReasonLastAdminViolation, "cannot remove the last administrator")
	}
	n := 0
	for _, m := range s.movements {
		if m.UserID == memberID {
			n++
		}
	}
	if n > 0 {
		return blocked(core.ReasonReferencedEntity, "member is attributed %d movement(s)", n)
	}
	return allowed
}

// CanDemoteMember blocks demoting the last admin.
func (s *Store) CanDemoteMember(memberID string) Verdict {
	if s.isSoleAdmin(memberID) {
		return blocked(core.ReasonLastAdminViolation, "cannot demote the last administrator")
	}
	return allowed
}

func (s *Store) isSoleAdmin(memberID string) bool {
	m, ok := s.Member(memberID)
	if !ok || m.Role != core.RoleAdmin {
		return false
	}
	return len(s.Admins()) <= 1
}
