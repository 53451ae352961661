package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"cassa/internal/amqp"
	"cassa/internal/cache"
	"cassa/internal/core"
	"cassa/internal/log"
	"cassa/internal/memory"
	"cassa/internal/storage"
)

// IntentWorker applies intent messages from the queue to a store, one at a
// time, in delivery order.
type IntentWorker struct {
	exec core.Executor
	seen *cache.LRUCache[struct{}]

	applied    atomic.Int64
	duplicates atomic.Int64
	dropped    atomic.Int64
}

// Stats counts what the worker did since it started.
type Stats struct {
	Applied    int64
	Duplicates int64
	Dropped    int64
}

// NewIntentWorker remembers up to dedupeSize message ids for dedupeTTL so a
// redelivered message is not applied twice.
func NewIntentWorker(exec core.Executor, dedupeSize int, dedupeTTL time.Duration) *IntentWorker {
	return &IntentWorker{
		exec: exec,
		seen: cache.NewLRUCache[struct{}](dedupeSize, dedupeTTL),
	}
}

// Seen exposes the dedupe cache so a cache.Manager can sweep it.
func (w *IntentWorker) Seen() cache.Cleaner { return w.seen }

func (w *IntentWorker) Stats() Stats {
	return Stats{
		Applied:    w.applied.Load(),
		Duplicates: w.duplicates.Load(),
		Dropped:    w.dropped.Load(),
	}
}

// HandleIntentMessage applies one message. Errors that retrying cannot fix
// wrap amqp.ErrPermanent.
func (w *IntentWorker) HandleIntentMessage(ctx context.Context, msg *amqp.IntentMessage) error {
	if msg.MessageID != "" {
		if _, ok := w.seen.Get(msg.MessageID); ok {
			w.duplicates.Add(1)
			slog.InfoContext(ctx, "Skipping already applied message", log.FieldMessageID, msg.MessageID)
			return nil
		}
	}

	in, err := msg.Intent()
	if err != nil {
		w.dropped.Add(1)
		return fmt.Errorf("decode intent: %w: %w", amqp.ErrPermanent, err)
	}

	slog.InfoContext(ctx, "Applying intent",
		log.FieldIntent, in.String(),
		log.FieldPlanID, msg.PlanID,
		log.FieldMessageID, msg.MessageID)

	if err := w.exec.Execute(ctx, in); err != nil {
		if isPermanent(err) {
			w.dropped.Add(1)
			return fmt.Errorf("apply %s: %w: %w", in, amqp.ErrPermanent, err)
		}
		return fmt.Errorf("apply %s: %w", in, err)
	}

	if msg.MessageID != "" {
		w.seen.Set(msg.MessageID, struct{}{})
	}
	w.applied.Add(1)
	return nil
}

// Run consumes from client until ctx is done.
func (w *IntentWorker) Run(ctx context.Context, client *amqp.Client) error {
	err := client.ConsumeIntents(ctx, w.HandleIntentMessage)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func isPermanent(err error) bool {
	for _, target := range []error{
		storage.ErrNotFound, storage.ErrDuplicate, storage.ErrPayload, storage.ErrConstraint,
		memory.ErrNotFound, memory.ErrDuplicate, memory.ErrPayload,
		core.ErrUnknownEntity, core.ErrUnknownOp, core.ErrPayloadMissing,
		core.ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
