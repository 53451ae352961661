package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cassa/internal/core"
	"cassa/internal/ledger"
)

// MovementInput is what a caller submits to create or replace a movement.
// An empty ID creates a new movement; otherwise the existing one is replaced.
type MovementInput struct {
	ID         string
	Kind       core.Kind
	CategoryID string
	Amount     string
	Reason     string
	UserID     string
	Timestamp  time.Time
	Note       string
	PoolID     string
	Status     core.Status
}

// LedgerService turns cash-register requests into mutation plans. It reads
// the snapshot it is handed and never touches storage.
type LedgerService struct {
	now   core.Clock
	newID func() string
}

func NewLedgerService(now core.Clock) *LedgerService {
	if now == nil {
		now = core.SystemClock
	}
	return &LedgerService{now: now, newID: uuid.NewString}
}

// SubmitMovement validates in against the snapshot and returns a plan with
// one create or update intent.
func (s *LedgerService) SubmitMovement(store *ledger.Store, in MovementInput) (core.Plan, error) {
	required := []struct{ field, value string }{
		{"poolId", in.PoolID},
		{"kind", string(in.Kind)},
		{"categoryId", in.CategoryID},
		{"amount", in.Amount},
		{"reason", in.Reason},
		{"userId", in.UserID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return core.Plan{}, core.Missing(r.field)
		}
	}
	if !in.Kind.Valid() {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "kind", fmt.Sprintf("unknown movement kind %q", in.Kind))
	}
	status := in.Status
	if status == "" {
		status = core.Realized
	}
	if !status.Valid() {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "status", fmt.Sprintf("unknown movement status %q", in.Status))
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "amount", "amount must be a non-negative number")
	}
	if _, ok := store.Pool(in.PoolID); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "poolId", "cash pool not found")
	}
	cat, ok := store.Category(in.CategoryID)
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "categoryId", "category not found")
	}
	if cat.Kind != in.Kind {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "categoryId", "category does not match the movement kind")
	}
	if _, ok := store.Member(in.UserID); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "userId", "team member not found")
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	m := core.Movement{
		ID:         in.ID,
		Kind:       in.Kind,
		CategoryID: in.CategoryID,
		Amount:     amount,
		Reason:     strings.TrimSpace(in.Reason),
		UserID:     in.UserID,
		Timestamp:  core.Naive(ts),
		Note:       strings.TrimSpace(in.Note),
		PoolID:     in.PoolID,
		Status:     status,
	}

	if in.ID == "" {
		m.ID = s.newID()
		if err := m.Validate(); err != nil {
			return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "", err.Error())
		}
		return core.NewPlan("create movement", core.CreateIntent(core.EntityMovement, m.ID, m)), nil
	}

	prev, ok := store.Movement(in.ID)
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "movement not found")
	}
	if prev.PoolID != m.PoolID {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "poolId", "a movement cannot move to another cash pool")
	}
	if prev.IsRealized() && m.Status == core.Provisional {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "status", "a realized movement cannot become provisional again")
	}
	if err := m.Validate(); err != nil {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "", err.Error())
	}
	return core.NewPlan("update movement", core.UpdateIntent(core.EntityMovement, m.ID, m)), nil
}

// MarkRealized moves a provisional movement to realized.
func (s *LedgerService) MarkRealized(store *ledger.Store, id string) (core.Plan, error) {
	m, ok := store.Movement(id)
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "movement not found")
	}
	if m.IsRealized() {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "status", "movement is already realized")
	}
	m.Status = core.Realized
	return core.NewPlan("realize movement", core.UpdateIntent(core.EntityMovement, m.ID, m)), nil
}

func (s *LedgerService) DeleteMovement(store *ledger.Store, id string) (core.Plan, error) {
	if _, ok := store.Movement(id); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "movement not found")
	}
	return core.NewPlan("delete movement", core.DeleteIntent(core.EntityMovement, id)), nil
}

func (s *LedgerService) DeletePool(store *ledger.Store, id string) (core.Plan, error) {
	if _, ok := store.Pool(id); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "cash pool not found")
	}
	if err := store.CanDeletePool(id).Err(core.EntityPool, id); err != nil {
		return core.Plan{}, err
	}
	return core.NewPlan("delete cash pool", core.DeleteIntent(core.EntityPool, id)), nil
}

func (s *LedgerService) DeleteCategory(store *ledger.Store, id string) (core.Plan, error) {
	if _, ok := store.Category(id); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "category not found")
	}
	if err := store.CanDeleteCategory(id).Err(core.EntityCategory, id); err != nil {
		return core.Plan{}, err
	}
	return core.NewPlan("delete category", core.DeleteIntent(core.EntityCategory, id)), nil
}

func (s *LedgerService) DeleteMember(store *ledger.Store, id string) (core.Plan, error) {
	if _, ok := store.Member(id); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "team member not found")
	}
	if err := store.CanDeleteMember(id).Err(core.EntityMember, id); err != nil {
		return core.Plan{}, err
	}
	return core.NewPlan("delete team member", core.DeleteIntent(core.EntityMember, id)), nil
}

// ToggleMemberRole flips a member between admin and member.
func (s *LedgerService) ToggleMemberRole(store *ledger.Store, id string) (core.Plan, error) {
	m, ok := store.Member(id)
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "team member not found")
	}
	if m.Role == core.RoleAdmin {
		if err := store.CanDemoteMember(id).Err(core.EntityMember, id); err != nil {
			return core.Plan{}, err
		}
		m.Role = core.RoleMember
	} else {
		m.Role = core.RoleAdmin
	}
	return core.NewPlan("toggle member role", core.UpdateIntent(core.EntityMember, m.ID, m)), nil
}
