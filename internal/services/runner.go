package services

import (
	"context"
	"fmt"
	"log/slog"

	"cassa/internal/core"
	"cassa/internal/log"
)

// Outcome counts what happened to the intents of one plan.
type Outcome struct {
	PlanID    string
	Succeeded int
	Failed    int
	Skipped   int
	Errs      []error
}

// Err returns a *core.PartialFailure when anything failed or was skipped.
func (o Outcome) Err() error {
	if o.Failed == 0 && o.Skipped == 0 {
		return nil
	}
	return &core.PartialFailure{
		PlanID:    o.PlanID,
		Succeeded: o.Succeeded,
		Failed:    o.Failed,
		Skipped:   o.Skipped,
		Errs:      o.Errs,
	}
}

// apply executes intents sequentially. A cancelled context skips the rest.
func (o *Outcome) apply(ctx context.Context, exec core.Executor, intents []core.Intent) {
	for i, in := range intents {
		if err := ctx.Err(); err != nil {
			o.Skipped += len(intents) - i
			o.Errs = append(o.Errs, err)
			return
		}
		if err := exec.Execute(ctx, in); err != nil {
			o.Failed++
			o.Errs = append(o.Errs, fmt.Errorf("%s: %w", in, err))
			slog.WarnContext(ctx, "Intent failed",
				log.FieldPlanID, o.PlanID,
				log.FieldIntent, in.String(),
				"error", err)
			continue
		}
		o.Succeeded++
	}
}

// Run executes every intent of plan in order, never concurrently. A failed
// intent does not stop the ones after it and nothing is rolled back.
func Run(ctx context.Context, exec core.Executor, plan core.Plan) (Outcome, error) {
	ctx = core.WithPlanID(ctx, plan.ID)
	out := Outcome{PlanID: plan.ID}
	out.apply(ctx, exec, plan.Intents)

	slog.DebugContext(ctx, "Plan executed",
		log.FieldPlanID, plan.ID,
		"summary", plan.Summary,
		log.FieldSucceeded, out.Succeeded,
		log.FieldFailed, out.Failed,
		log.FieldSkipped, out.Skipped)

	return out, out.Err()
}
