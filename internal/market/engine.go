// Package market aggregates market-day participations and commission
// accounting for exhibitors. It is independent from the cash-register ledger.
package market

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cassa/internal/core"
)

// CommissionAmount is revenue × rate / 100. It is recomputed on every write
// and never taken from input.
func CommissionAmount(revenue, rate float64) float64 {
	return revenue * rate / 100
}

// Stats aggregates revenue and commission over a set of participations.
type Stats struct {
	Revenue    float64
	Commission float64
	Exhibitors int
}

// GlobalStats aggregates every participation and counts closed markets.
type GlobalStats struct {
	Revenue       float64
	Commission    float64
	ClosedMarkets int
}

// Engine derives market views from a snapshot and plans market mutations.
type Engine struct {
	snap  core.MarketSnapshot
	now   core.Clock
	newID func() string

	markets    map[string]core.Market
	exhibitors map[string]core.Exhibitor
	parts      map[string]core.Participation
}

func NewEngine(snap core.MarketSnapshot, now core.Clock) *Engine {
	if now == nil {
		now = core.SystemClock
	}
	e := &Engine{
		snap: core.MarketSnapshot{
			Markets:        append([]core.Market(nil), snap.Markets...),
			Exhibitors:     append([]core.Exhibitor(nil), snap.Exhibitors...),
			Participations: append([]core.Participation(nil), snap.Participations...),
		},
		now:        now,
		newID:      uuid.NewString,
		markets:    make(map[string]core.Market, len(snap.Markets)),
		exhibitors: make(map[string]core.Exhibitor, len(snap.Exhibitors)),
		parts:      make(map[string]core.Participation, len(snap.Participations)),
	}
	for _, m := range e.snap.Markets {
		e.markets[m.ID] = m
	}
	for _, x := range e.snap.Exhibitors {
		e.exhibitors[x.ID] = x
	}
	for _, p := range e.snap.Participations {
		e.parts[p.ID] = p
	}
	return e
}

func (e *Engine) Markets() []core.Market {
	return append([]core.Market(nil), e.snap.Markets...)
}

func (e *Engine) Market(id string) (core.Market, bool) {
	m, ok := e.markets[id]
	return m, ok
}

func (e *Engine) Exhibitor(id string) (core.Exhibitor, bool) {
	x, ok := e.exhibitors[id]
	return x, ok
}

// Participations returns the participations of marketID, all of them when
// marketID is empty.
func (e *Engine) Participations(marketID string) []core.Participation {
	var out []core.Participation
	for _, p := range e.snap.Participations {
		if marketID == "" || p.MarketID == marketID {
			out = append(out, p)
		}
	}
	return out
}

// MarketStats sums confirmed participations of one market and counts their
// distinct exhibitors.
func (e *Engine) MarketStats(marketID string) Stats {
	var st Stats
	seen := make(map[string]struct{})
	for _, p := range e.snap.Participations {
		if p.MarketID != marketID || p.Status != core.ParticipationConfirmed {
			continue
		}
		st.Revenue += p.Revenue
		st.Commission += p.CommissionAmount
		seen[p.ExhibitorID] = struct{}{}
	}
	st.Exhibitors = len(seen)
	return st
}

// GlobalStats sums every participation whatever its status, unlike
// MarketStats which keeps confirmed ones only.
func (e *Engine) GlobalStats() GlobalStats {
	var st GlobalStats
	for _, p := range e.snap.Participations {
		st.Revenue += p.Revenue
		st.Commission += p.CommissionAmount
	}
	for _, m := range e.snap.Markets {
		if m.Status == core.MarketClosed {
			st.ClosedMarkets++
		}
	}
	return st
}

// ExhibitorStats is the confirmed revenue and commission of one exhibitor
// across markets, with what is still unpaid.
type ExhibitorStats struct {
	Exhibitor  core.Exhibitor
	Markets    int
	Revenue    float64
	Commission float64
	Unpaid     float64
}

func (e *Engine) ExhibitorStats(exhibitorID string) ExhibitorStats {
	st := ExhibitorStats{Exhibitor: e.exhibitors[exhibitorID]}
	for _, p := range e.snap.Participations {
		if p.ExhibitorID != exhibitorID || p.Status != core.ParticipationConfirmed {
			continue
		}
		st.Markets++
		st.Revenue += p.Revenue
		st.Commission += p.CommissionAmount
		if !p.Paid {
			st.Unpaid += p.CommissionAmount
		}
	}
	return st
}

func (e *Engine) referencing(match func(core.Participation) bool) int {
	n := 0
	for _, p := range e.snap.Participations {
		if match(p) {
			n++
		}
	}
	return n
}

// CanDeleteMarket returns a ConstraintViolation while participations reference the market.
func (e *Engine) CanDeleteMarket(id string) error {
	if n := e.referencing(func(p core.Participation) bool { return p.MarketID == id }); n > 0 {
		return core.Violation(core.ReasonReferencedEntity, core.EntityMarket, id,
			fmt.Sprintf("market has %d participation(s)", n))
	}
	return nil
}

// CanDeleteExhibitor returns a ConstraintViolation while participations reference the exhibitor.
func (e *Engine) CanDeleteExhibitor(id string) error {
	if n := e.referencing(func(p core.Participation) bool { return p.ExhibitorID == id }); n > 0 {
		return core.Violation(core.ReasonReferencedEntity, core.EntityExhibitor, id,
			fmt.Sprintf("exhibitor has %d participation(s)", n))
	}
	return nil
}

func (e *Engine) DeleteMarket(id string) (core.Plan, error) {
	if _, ok := e.markets[id]; !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "market not found")
	}
	if err := e.CanDeleteMarket(id); err != nil {
		return core.Plan{}, err
	}
	return core.NewPlan("delete market", core.DeleteIntent(core.EntityMarket, id)), nil
}

func (e *Engine) DeleteExhibitor(id string) (core.Plan, error) {
	if _, ok := e.exhibitors[id]; !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "exhibitor not found")
	}
	if err := e.CanDeleteExhibitor(id); err != nil {
		return core.Plan{}, err
	}
	return core.NewPlan("delete exhibitor", core.DeleteIntent(core.EntityExhibitor, id)), nil
}

// ParticipationInput is what a caller submits for one exhibitor at one market.
// A nil CommissionRate takes the market's default rate.
type ParticipationInput struct {
	ID             string
	MarketID       string
	ExhibitorID    string
	Status         core.ParticipationStatus
	Revenue        string
	CommissionRate *float64
	Paid           bool
}

// SubmitParticipation validates in and returns a create or update plan whose
// commission amount is derived from revenue and rate.
func (e *Engine) SubmitParticipation(in ParticipationInput) (core.Plan, error) {
	if strings.TrimSpace(in.MarketID) == "" {
		return core.Plan{}, core.Missing("marketId")
	}
	if strings.TrimSpace(in.ExhibitorID) == "" {
		return core.Plan{}, core.Missing("exhibitorId")
	}
	mkt, ok := e.markets[in.MarketID]
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "marketId", "market not found")
	}
	if _, ok := e.exhibitors[in.ExhibitorID]; !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "exhibitorId", "exhibitor not found")
	}

	status := in.Status
	if status == "" {
		status = core.ParticipationInvited
	}
	if !status.Valid() {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "status", fmt.Sprintf("unknown participation status %q", in.Status))
	}

	revenue := 0.0
	if strings.TrimSpace(in.Revenue) != "" {
		r, err := core.ParseAmount(in.Revenue)
		if err != nil {
			return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "revenue", "revenue must be a non-negative number")
		}
		revenue = r
	}

	rate := mkt.DefaultCommissionRate
	if in.CommissionRate != nil {
		rate = *in.CommissionRate
	}
	if !core.ValidRate(rate) {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "commissionRate", "commission rate must be a finite, non-negative percentage")
	}

	p := core.Participation{
		ID:               in.ID,
		MarketID:         in.MarketID,
		ExhibitorID:      in.ExhibitorID,
		Status:           status,
		Revenue:          revenue,
		CommissionRate:   rate,
		CommissionAmount: CommissionAmount(revenue, rate),
		Paid:             in.Paid,
	}

	if taken := e.pairTaken(in.MarketID, in.ExhibitorID, in.ID); taken {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "exhibitorId", "exhibitor already takes part in this market")
	}

	if in.ID == "" {
		p.ID = e.newID()
		if p.Paid {
			p.PaidAt = e.now()
		}
		return core.NewPlan("create participation", core.CreateIntent(core.EntityParticipation, p.ID, p)), nil
	}

	prev, ok := e.parts[in.ID]
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "participation not found")
	}
	switch {
	case p.Paid && prev.Paid:
		p.PaidAt = prev.PaidAt
	case p.Paid:
		p.PaidAt = e.now()
	}
	return core.NewPlan("update participation", core.UpdateIntent(core.EntityParticipation, p.ID, p)), nil
}

// pairTaken reports whether a participation other than selfID already joins
// marketID and exhibitorID.
func (e *Engine) pairTaken(marketID, exhibitorID, selfID string) bool {
	for _, existing := range e.snap.Participations {
		if existing.ID != selfID && existing.MarketID == marketID && existing.ExhibitorID == exhibitorID {
			return true
		}
	}
	return false
}

// MarkPaid flags a participation's commission as collected now.
func (e *Engine) MarkPaid(id string) (core.Plan, error) {
	p, ok := e.parts[id]
	if !ok {
		return core.Plan{}, core.Invalid(core.ReasonNotFound, "id", "participation not found")
	}
	if p.Paid {
		return core.Plan{}, core.Invalid(core.ReasonInvalidValue, "paid", "commission already paid")
	}
	p.Paid = true
	p.PaidAt = e.now()
	p.CommissionAmount = CommissionAmount(p.Revenue, p.CommissionRate)
	return core.NewPlan("mark participation paid", core.UpdateIntent(core.EntityParticipation, p.ID, p)), nil
}
