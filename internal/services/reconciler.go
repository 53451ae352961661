package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"cassa/internal/core"
	"cassa/internal/ledger"
	"cassa/internal/log"
)

// DefaultConfirmationPhrase must be typed verbatim to reset a pool.
const DefaultConfirmationPhrase = "REINITIALISER"

// ResetRequest describes one reset of a cash pool.
type ResetRequest struct {
	PoolID        string
	Confirmation  string
	Mode          ResetMode
	OpeningAmount float64
	ActorID       string
}

// Reconciler runs the reset workflow: delete every movement of a pool, then
// optionally seed an opening balance.
//
// Callers must not run two resets of the same pool concurrently.
type Reconciler struct {
	phrase string
	now    core.Clock
	newID  func() string
}

func NewReconciler(phrase string, now core.Clock) *Reconciler {
	if phrase == "" {
		phrase = DefaultConfirmationPhrase
	}
	if now == nil {
		now = core.SystemClock
	}
	return &Reconciler{phrase: phrase, now: now, newID: uuid.NewString}
}

// Phrase is the confirmation text the user has to type.
func (r *Reconciler) Phrase() string { return r.phrase }

// PlanReset validates req and returns the ordered intents of the reset:
// one delete per movement of the pool, then the seeding intents.
func (r *Reconciler) PlanReset(store *ledger.Store, req ResetRequest) (core.Plan, error) {
	if req.Confirmation != r.phrase {
		return core.Plan{}, core.Invalid(core.ReasonConfirmationMismatch, "confirmation", "confirmation phrase does not match")
	}
	if req.PoolID == "" {
		return core.Plan{}, core.Missing("poolId")
	}
	if _, ok := store.Pool(req.PoolID); !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "poolId", "cash pool not found")
	}
	mode := req.Mode
	if mode == "" {
		mode = ResetZero
	}
	strategy, err := GetSeedStrategy(mode)
	if err != nil {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "mode", err.Error())
	}
	seed, err := strategy.Seed(r, store, req)
	if err != nil {
		return core.Plan{}, err
	}

	var intents []core.Intent
	for _, m := range store.Movements() {
		if m.PoolID == req.PoolID {
			intents = append(intents, core.DeleteIntent(core.EntityMovement, m.ID))
		}
	}
	intents = append(intents, seed...)
	return core.NewPlan("reset cash pool "+req.PoolID, intents...), nil
}

// ResetPool plans the reset and executes it one intent at a time. Deletions
// keep going past a failure; the seed is skipped if any deletion failed.
// Nothing already applied is rolled back: a *core.PartialFailure reports
// what happened so the pool can be reviewed by hand.
func (r *Reconciler) ResetPool(ctx context.Context, store *ledger.Store, exec core.Executor, req ResetRequest) (Outcome, error) {
	plan, err := r.PlanReset(store, req)
	if err != nil {
		return Outcome{}, err
	}

	ctx = core.WithPlanID(ctx, plan.ID)
	deletes, seeds := splitByOp(plan.Intents, core.OpDelete)
	out := Outcome{PlanID: plan.ID}
	out.apply(ctx, exec, deletes)
	if out.Failed > 0 {
		out.Skipped += len(seeds)
	} else {
		out.apply(ctx, exec, seeds)
	}

	slog.InfoContext(ctx, "Cash pool reset finished",
		log.FieldPoolID, req.PoolID,
		log.FieldPlanID, plan.ID,
		"mode", req.Mode,
		log.FieldSucceeded, out.Succeeded,
		log.FieldFailed, out.Failed,
		log.FieldSkipped, out.Skipped)

	return out, out.Err()
}

func splitByOp(intents []core.Intent, op core.Op) (match, rest []core.Intent) {
	for _, in := range intents {
		if in.Op == op {
			match = append(match, in)
		} else {
			rest = append(rest, in)
		}
	}
	return match, rest
}
