package core

import (
	"testing"
	"time"
)

func validMovement() Movement {
	return Movement{
		ID:         "m1",
		Kind:       Inflow,
		CategoryID: "c1",
		Amount:     10.5,
		Reason:     "vente",
		UserID:     "u1",
		Timestamp:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		PoolID:     "p1",
		Status:     Realized,
	}
}

func TestMovementValidate(t *testing.T) {
	if err := validMovement().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutate := []func(*Movement){
		func(m *Movement) { m.Kind = "x" },
		func(m *Movement) { m.Status = "" },
		func(m *Movement) { m.Amount = -1 },
		func(m *Movement) { m.Amount = 1.001 },
		func(m *Movement) { m.Reason = "  " },
		func(m *Movement) { m.CategoryID = "" },
		func(m *Movement) { m.PoolID = "" },
		func(m *Movement) { m.UserID = "" },
		func(m *Movement) { m.Timestamp = time.Time{} },
	}
	for i, f := range mutate {
		m := validMovement()
		f(&m)
		if err := m.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMovementZeroAmountAllowed(t *testing.T) {
	m := validMovement()
	m.Amount = 0
	if err := m.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}
}

func TestMovementSigned(t *testing.T) {
	m := validMovement()
	if m.Signed() != 10.5 {
		t.Fatalf("inflow should be positive")
	}
	m.Kind = Outflow
	if m.Signed() != -10.5 {
		t.Fatalf("outflow should be negative")
	}
}

func TestEnumsValid(t *testing.T) {
	if !Inflow.Valid() || Kind("x").Valid() {
		t.Fatalf("kind validation broken")
	}
	if !RoleAdmin.Valid() || Role("owner").Valid() {
		t.Fatalf("role validation broken")
	}
	if !MarketClosed.Valid() || MarketStatus("done").Valid() {
		t.Fatalf("market status validation broken")
	}
	if !ParticipationConfirmed.Valid() || ParticipationStatus("maybe").Valid() {
		t.Fatalf("participation status validation broken")
	}
}

func TestNaive(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2024, 3, 5, 23, 30, 15, 999, loc)
	got := Naive(in)
	if got.Location() != time.UTC || got.Hour() != 23 || got.Nanosecond() != 0 {
		t.Fatalf("unexpected naive time %v", got)
	}
	if !StartOfDay(in).Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start of day %v", StartOfDay(in))
	}
}
