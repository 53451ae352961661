package core

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	EntityPool          EntityKind = "pool"
	EntityCategory      EntityKind = "category"
	EntityMovement      EntityKind = "movement"
	EntityMember        EntityKind = "member"
	EntityMarket        EntityKind = "market"
	EntityExhibitor     EntityKind = "exhibitor"
	EntityParticipation EntityKind = "participation"

	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type (
	EntityKind string
	Op         string

	// Intent is one mutation the caller executes against its store.
	// Payload holds the full entity value for create and update
	// (Movement, CashPool, Category, TeamMember, Market, Exhibitor or
	// Participation) and is nil for delete.
	Intent struct {
		Op      Op
		Entity  EntityKind
		ID      string
		Payload any
	}

	// Plan is the ordered list of intents produced by one workflow call.
	Plan struct {
		ID      string
		Intents []Intent
		Summary string
	}

	// Executor applies one intent at a time.
	Executor interface {
		Execute(ctx context.Context, in Intent) error
	}

	// ExecutorFunc adapts a function to Executor.
	ExecutorFunc func(ctx context.Context, in Intent) error
)

func (f ExecutorFunc) Execute(ctx context.Context, in Intent) error { return f(ctx, in) }

func (e EntityKind) Valid() bool {
	switch e {
	case EntityPool, EntityCategory, EntityMovement, EntityMember,
		EntityMarket, EntityExhibitor, EntityParticipation:
		return true
	default:
		return false
	}
}

func (o Op) Valid() bool {
	return o == OpCreate || o == OpUpdate || o == OpDelete
}

func (in Intent) String() string {
	return fmt.Sprintf("%s %s %s", in.Op, in.Entity, in.ID)
}

// Validate checks the intent is well formed; it does not check business rules.
func (in Intent) Validate() error {
	if !in.Op.Valid() {
		return ErrUnknownOp
	}
	if !in.Entity.Valid() {
		return ErrUnknownEntity
	}
	if in.ID == "" {
		return Missing("id")
	}
	if in.Op != OpDelete && in.Payload == nil {
		return ErrPayloadMissing
	}
	return nil
}

// NewPlan stamps a sortable id on a list of intents.
func NewPlan(summary string, intents ...Intent) Plan {
	return Plan{
		ID:      ulid.Make().String(),
		Intents: intents,
		Summary: summary,
	}
}

// Count returns how many intents of op the plan holds.
func (p Plan) Count(op Op) int {
	n := 0
	for _, in := range p.Intents {
		if in.Op == op {
			n++
		}
	}
	return n
}

func CreateIntent(entity EntityKind, id string, payload any) Intent {
	return Intent{Op: OpCreate, Entity: entity, ID: id, Payload: payload}
}

func UpdateIntent(entity EntityKind, id string, payload any) Intent {
	return Intent{Op: OpUpdate, Entity: entity, ID: id, Payload: payload}
}

func DeleteIntent(entity EntityKind, id string) Intent {
	return Intent{Op: OpDelete, Entity: entity, ID: id}
}

type planKey struct{}

// WithPlanID tags intents executed under ctx with the plan they belong to.
func WithPlanID(ctx context.Context, planID string) context.Context {
	return context.WithValue(ctx, planKey{}, planID)
}

// PlanID returns the plan id carried by ctx, or "".
func PlanID(ctx context.Context) string {
	id, _ := ctx.Value(planKey{}).(string)
	return id
}

// Clock returns the current instant; tests substitute a fixed one.
type Clock func() time.Time

// SystemClock is the wall clock truncated to the canonical naive form.
func SystemClock() time.Time { return Naive(time.Now()) }
