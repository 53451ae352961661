package ledger

import (
	"sort"
	"strings"
	"time"

	"cassa/internal/core"
)

const (
	PeriodAll        Period = "all"
	PeriodToday      Period = "today"
	PeriodLast7Days  Period = "last7days"
	PeriodLast30Days Period = "last30days"
)

type Period string

func (p Period) Valid() bool {
	switch p {
	case PeriodAll, PeriodToday, PeriodLast7Days, PeriodLast30Days, "":
		return true
	default:
		return false
	}
}

// Filter narrows a pool's movements. The zero value keeps realized
// movements of every period.
type Filter struct {
	Period             Period
	UserID             string
	SearchText         string
	IncludeProvisional bool
}

// window returns the inclusive calendar-day range of p relative to now.
// The rolling periods count today as their last day.
func (p Period) window(now time.Time) (from, to time.Time, bounded bool) {
	today := core.StartOfDay(now)
	end := today.AddDate(0, 0, 1)
	switch p {
	case PeriodToday:
		return today, end, true
	case PeriodLast7Days:
		return today.AddDate(0, 0, -6), end, true
	case PeriodLast30Days:
		return today.AddDate(0, 0, -29), end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// FilteredView returns the movements of poolID matching every constraint of
// f, newest first. Ties keep insertion order.
func (c *Calculator) FilteredView(poolID string, f Filter) []core.Movement {
	from, to, bounded := f.Period.window(c.now())
	needle := strings.ToLower(strings.TrimSpace(f.SearchText))

	var out []core.Movement
	for _, m := range c.MovementsForPool(poolID) {
		if !f.IncludeProvisional && !m.IsRealized() {
			continue
		}
		if f.UserID != "" && m.UserID != f.UserID {
			continue
		}
		if bounded && (m.Timestamp.Before(from) || !m.Timestamp.Before(to)) {
			continue
		}
		if needle != "" && !c.matches(m, needle) {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (c *Calculator) matches(m core.Movement, needle string) bool {
	for _, field := range []string{m.Reason, m.Note, c.store.MemberName(m.UserID)} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
