package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Inflow  Kind = "inflow"
	Outflow Kind = "outflow"

	Realized    Status = "realized"
	Provisional Status = "provisional"

	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// PlaceholderCategoryID is assigned to decoded movements that carry no category.
const PlaceholderCategoryID = "uncategorized"

// TimestampLayout is the canonical timezone-naive layout used at every boundary.
const TimestampLayout = "2006-01-02 15:04:05"

type (
	Kind   string
	Status string
	Role   string

	CashPool struct {
		ID          string
		Name        string
		Description string
		Icon        string
	}

	Category struct {
		ID    string
		Kind  Kind
		Label string
		Icon  string
	}

	Movement struct {
		ID         string
		Kind       Kind
		CategoryID string
		Amount     float64
		Reason     string
		UserID     string
		Timestamp  time.Time
		Note       string
		PoolID     string
		Status     Status
	}

	TeamMember struct {
		ID    string
		Name  string
		Email string
		Role  Role
	}

	// LedgerSnapshot is what the storage collaborator hands to the engine.
	LedgerSnapshot struct {
		Pools      []CashPool
		Categories []Category
		Movements  []Movement
		Members    []TeamMember
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyReason    = errors.New("empty reason")
	ErrEmptyCategory  = errors.New("empty category")
	ErrEmptyPool      = errors.New("empty pool")
	ErrEmptyUser      = errors.New("empty user")
	ErrInvalidKind    = errors.New("invalid kind")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidRole    = errors.New("invalid role")
	ErrZeroTimestamp  = errors.New("timestamp cannot be zero")
	ErrEmptyName      = errors.New("empty name")
	ErrEmptyLabel     = errors.New("empty label")
	ErrUnknownEntity  = errors.New("unknown entity kind")
	ErrUnknownOp      = errors.New("unknown intent operation")
	ErrPayloadMissing = errors.New("intent payload missing")
)

func (k Kind) Valid() bool {
	return k == Inflow || k == Outflow
}

func (s Status) Valid() bool {
	return s == Realized || s == Provisional
}

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Signed returns the amount with the sign implied by the movement kind.
func (m Movement) Signed() float64 {
	if m.Kind == Outflow {
		return -m.Amount
	}
	return m.Amount
}

func (m Movement) IsRealized() bool {
	return m.Status == Realized
}

func (m Movement) Validate() error {
	if !m.Kind.Valid() {
		return ErrInvalidKind
	}
	if !m.Status.Valid() {
		return ErrInvalidStatus
	}
	if m.Amount < 0 || !HasCentPrecision(m.Amount) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(m.Reason) == "" {
		return ErrEmptyReason
	}
	if len(m.Reason) > 200 {
		return errors.New("reason too long (max 200 characters)")
	}
	if strings.TrimSpace(m.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(m.PoolID) == "" {
		return ErrEmptyPool
	}
	if strings.TrimSpace(m.UserID) == "" {
		return ErrEmptyUser
	}
	if m.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	return nil
}

func (p CashPool) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(c.Label) == "" {
		return ErrEmptyLabel
	}
	return nil
}

func (t TeamMember) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if !t.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Naive drops the location from t, keeping its wall clock.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// StartOfDay returns midnight of the calendar day of t.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
