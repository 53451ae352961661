package core

import (
	"strings"
	"time"
)

const (
	MarketPlanned MarketStatus = "planned"
	MarketOpen    MarketStatus = "open"
	MarketClosed  MarketStatus = "closed"

	ExhibitorCandidate ExhibitorStatus = "candidate"
	ExhibitorApproved  ExhibitorStatus = "approved"
	ExhibitorRejected  ExhibitorStatus = "rejected"
	ExhibitorSuspended ExhibitorStatus = "suspended"

	ParticipationInvited   ParticipationStatus = "invited"
	ParticipationConfirmed ParticipationStatus = "confirmed"
	ParticipationAbsent    ParticipationStatus = "absent"
)

type (
	MarketStatus        string
	ExhibitorStatus     string
	ParticipationStatus string

	Market struct {
		ID                    string
		Date                  time.Time
		Place                 string
		DefaultCommissionRate float64
		Status                MarketStatus
	}

	Exhibitor struct {
		ID     string
		Name   string
		Email  string
		Phone  string
		Status ExhibitorStatus
	}

	Participation struct {
		ID               string
		MarketID         string
		ExhibitorID      string
		Status           ParticipationStatus
		Revenue          float64
		CommissionRate   float64
		CommissionAmount float64
		Paid             bool
		PaidAt           time.Time
	}

	MarketSnapshot struct {
		Markets        []Market
		Exhibitors     []Exhibitor
		Participations []Participation
	}
)

func (s MarketStatus) Valid() bool {
	switch s {
	case MarketPlanned, MarketOpen, MarketClosed:
		return true
	default:
		return false
	}
}

func (s ExhibitorStatus) Valid() bool {
	switch s {
	case ExhibitorCandidate, ExhibitorApproved, ExhibitorRejected, ExhibitorSuspended:
		return true
	default:
		return false
	}
}

func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationInvited, ParticipationConfirmed, ParticipationAbsent:
		return true
	default:
		return false
	}
}

func (m Market) Validate() error {
	if m.Date.IsZero() {
		return ErrZeroTimestamp
	}
	if strings.TrimSpace(m.Place) == "" {
		return ErrEmptyName
	}
	if !ValidRate(m.DefaultCommissionRate) {
		return ErrInvalidRate
	}
	if !m.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (e Exhibitor) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if !e.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (p Participation) Validate() error {
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	if p.Revenue < 0 {
		return ErrInvalidAmount
	}
	if !ValidRate(p.CommissionRate) {
		return ErrInvalidRate
	}
	return nil
}
