package decode

import (
	"fmt"
	"strings"
	"time"

	"cassa/internal/core"
)

// Pool decodes a cash pool record.
func Pool(r Record) (core.CashPool, error) {
	p := core.CashPool{
		ID:          text(r, "id"),
		Name:        text(r, "name"),
		Description: text(r, "description"),
		Icon:        text(r, "icon"),
	}
	if p.ID == "" {
		return core.CashPool{}, core.Missing("id")
	}
	return p, check(p.Validate())
}

// Category decodes a category record. kind is used when the record carries
// none, as in documents grouping categories by kind.
func Category(r Record, kind core.Kind) (core.Category, error) {
	c := core.Category{
		ID:    text(r, "id"),
		Kind:  core.Kind(text(r, "kind")),
		Label: text(r, "label"),
		Icon:  text(r, "icon"),
	}
	if c.ID == "" {
		return core.Category{}, core.Missing("id")
	}
	if c.Kind == "" {
		c.Kind = kind
	}
	if c.Label == "" {
		c.Label = text(r, "name")
	}
	return c, check(c.Validate())
}

// Movement decodes a movement record. A missing category falls back to
// core.PlaceholderCategoryID and a missing status to realized.
func Movement(r Record) (core.Movement, error) {
	m := core.Movement{
		ID:         text(r, "id"),
		Kind:       core.Kind(text(r, "kind")),
		CategoryID: text(r, "categoryId"),
		Reason:     text(r, "reason"),
		UserID:     text(r, "userId"),
		Note:       text(r, "note"),
		PoolID:     text(r, "poolId"),
		Status:     core.Status(text(r, "status")),
	}
	if m.ID == "" {
		return core.Movement{}, core.Missing("id")
	}
	if m.CategoryID == "" {
		m.CategoryID = core.PlaceholderCategoryID
	}
	if m.Status == "" {
		m.Status = core.Realized
	}
	amount, ok, err := decimal(r, "amount")
	if err != nil {
		return core.Movement{}, err
	}
	if !ok {
		return core.Movement{}, core.Missing("amount")
	}
	m.Amount = amount
	ts, err := timestamp(r)
	if err != nil {
		return core.Movement{}, err
	}
	m.Timestamp = ts
	return m, check(m.Validate())
}

// Member decodes a team member; a missing role means member.
func Member(r Record) (core.TeamMember, error) {
	t := core.TeamMember{
		ID:    text(r, "id"),
		Name:  text(r, "name"),
		Email: text(r, "email"),
		Role:  core.Role(strings.ToLower(text(r, "role"))),
	}
	if t.ID == "" {
		return core.TeamMember{}, core.Missing("id")
	}
	if t.Role == "" {
		t.Role = core.RoleMember
	}
	return t, check(t.Validate())
}

// Market decodes a market day; a missing status means planned.
func Market(r Record) (core.Market, error) {
	m := core.Market{
		ID:     text(r, "id"),
		Place:  text(r, "place"),
		Status: core.MarketStatus(text(r, "status")),
	}
	if m.ID == "" {
		return core.Market{}, core.Missing("id")
	}
	if m.Status == "" {
		m.Status = core.MarketPlanned
	}
	defaultRate, _, err := rate(r, "defaultCommissionRate")
	if err != nil {
		return core.Market{}, err
	}
	m.DefaultCommissionRate = defaultRate
	date, err := timestamp(r)
	if err != nil {
		return core.Market{}, err
	}
	m.Date = date
	return m, check(m.Validate())
}

// Exhibitor decodes an exhibitor; a missing status means candidate.
func Exhibitor(r Record) (core.Exhibitor, error) {
	x := core.Exhibitor{
		ID:     text(r, "id"),
		Name:   text(r, "name"),
		Email:  text(r, "email"),
		Phone:  text(r, "phone"),
		Status: core.ExhibitorStatus(text(r, "status")),
	}
	if x.ID == "" {
		return core.Exhibitor{}, core.Missing("id")
	}
	if x.Status == "" {
		x.Status = core.ExhibitorCandidate
	}
	return x, check(x.Validate())
}

// Participation decodes a participation; a missing status means invited.
// The stored commission amount is ignored and recomputed from revenue and rate.
func Participation(r Record) (core.Participation, error) {
	p := core.Participation{
		ID:          text(r, "id"),
		MarketID:    text(r, "marketId"),
		ExhibitorID: text(r, "exhibitorId"),
		Status:      core.ParticipationStatus(text(r, "status")),
	}
	switch {
	case p.ID == "":
		return core.Participation{}, core.Missing("id")
	case p.MarketID == "":
		return core.Participation{}, core.Missing("marketId")
	case p.ExhibitorID == "":
		return core.Participation{}, core.Missing("exhibitorId")
	}
	if p.Status == "" {
		p.Status = core.ParticipationInvited
	}
	var err error
	if p.Revenue, _, err = decimal(r, "revenue"); err != nil {
		return core.Participation{}, err
	}
	if p.CommissionRate, _, err = rate(r, "commissionRate"); err != nil {
		return core.Participation{}, err
	}
	p.CommissionAmount = p.Revenue * p.CommissionRate / 100
	if p.Paid, err = boolean(r, "paid"); err != nil {
		return core.Participation{}, err
	}
	if p.PaidAt, _, err = timeField(r, "paidAt"); err != nil {
		return core.Participation{}, err
	}
	return p, check(p.Validate())
}

// check turns a core sentinel from Validate into a ValidationError.
func check(err error) error {
	if err == nil {
		return nil
	}
	return core.Invalid(core.ReasonInvalidValue, "", err.Error())
}

var timeLayouts = []string{
	core.TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Naive(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// timeField reads name as a time.Time decoded by YAML or as a string in
// one of timeLayouts. ok is false when the field is absent or blank.
func timeField(r Record, name string) (time.Time, bool, error) {
	v, ok := lookup(r, name)
	if !ok {
		return time.Time{}, false, nil
	}
	if t, ok := v.(time.Time); ok {
		return core.Naive(t), true, nil
	}
	raw := strings.TrimSpace(stringify(v))
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return time.Time{}, true, core.Invalid(core.ReasonInvalidValue, name, err.Error())
	}
	return t, true, nil
}

// timestamp reads either a single "timestamp" field or a "date" plus an
// optional "time" field.
func timestamp(r Record) (time.Time, error) {
	if t, ok, err := timeField(r, "timestamp"); ok || err != nil {
		return t, err
	}
	day, ok, err := timeField(r, "date")
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, core.Missing("timestamp")
	}
	clock := text(r, "time")
	if clock == "" {
		return day, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
		}
	}
	return time.Time{}, core.Invalid(core.ReasonInvalidValue, "time", fmt.Sprintf("unrecognized time of day %q", clock))
}
