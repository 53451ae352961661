// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for the seeding step of a cash
// pool reset. Each reset mode has its own strategy that decides which
// intents follow the bulk deletion.

package services

import (
	"fmt"

	"cassa/internal/core"
	"cassa/internal/ledger"
)

const (
	ResetZero ResetMode = "zero"
	ResetSeed ResetMode = "seed"
)

// ResetMode selects what a pool holds once its movements are cleared.
type ResetMode string

// OpeningReason and OpeningNote describe the movement seeded by a reset.
const (
	OpeningReason = "Fond de caisse"
	OpeningNote   = "Réinitialisation de la caisse"
)

// SeedStrategy is the strategy interface for the step that follows the deletions.
type SeedStrategy interface {
	// Seed returns the intents to issue after every movement of the pool was deleted.
	Seed(r *Reconciler, store *ledger.Store, req ResetRequest) ([]core.Intent, error)
}

// ZeroStrategy leaves the pool empty.
type ZeroStrategy struct{}

func (ZeroStrategy) Seed(*Reconciler, *ledger.Store, ResetRequest) ([]core.Intent, error) {
	return nil, nil
}

// OpeningBalanceStrategy seeds one realized inflow carrying the opening amount.
type OpeningBalanceStrategy struct{}

// Seed issues nothing when the amount is zero.
func (OpeningBalanceStrategy) Seed(r *Reconciler, store *ledger.Store, req ResetRequest) ([]core.Intent, error) {
	if req.OpeningAmount < 0 || !core.HasCentPrecision(req.OpeningAmount) {
		return nil, core.Invalid(core.ReasonInvalidValue, "openingAmount", "opening amount must be a non-negative amount with at most two decimals")
	}
	if req.OpeningAmount == 0 {
		return nil, nil
	}

	actor, ok := store.Member(req.ActorID)
	if !ok {
		members := store.Members()
		if len(members) == 0 {
			return nil, core.Missing("userId")
		}
		actor = members[0]
	}

	cat, ok := store.Registry().OpeningCategory()
	if !ok {
		return nil, core.Invalid(core.ReasonMissingField, "categoryId", "no inflow category available for the opening balance")
	}

	m := core.Movement{
		ID:         r.newID(),
		Kind:       core.Inflow,
		CategoryID: cat.ID,
		Amount:     req.OpeningAmount,
		Reason:     OpeningReason,
		UserID:     actor.ID,
		Timestamp:  core.Naive(r.now()),
		Note:       OpeningNote,
		PoolID:     req.PoolID,
		Status:     core.Realized,
	}
	return []core.Intent{core.CreateIntent(core.EntityMovement, m.ID, m)}, nil
}

// seedStrategies maps reset modes to their strategy.
var seedStrategies = map[ResetMode]SeedStrategy{
	ResetZero: ZeroStrategy{},
	ResetSeed: OpeningBalanceStrategy{},
}

// GetSeedStrategy returns the strategy for mode.
func GetSeedStrategy(mode ResetMode) (SeedStrategy, error) {
	s, ok := seedStrategies[mode]
	if !ok {
		return nil, fmt.Errorf("unknown reset mode: %s", mode)
	}
	return s, nil
}
