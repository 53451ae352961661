package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cassa/internal/core"
)

var fixedNow = time.Date(2024, 5, 4, 18, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func part(id, market, exhibitor string, status core.ParticipationStatus, revenue, rate float64) core.Participation {
	return core.Participation{
		ID: id, MarketID: market, ExhibitorID: exhibitor, Status: status,
		Revenue: revenue, CommissionRate: rate, CommissionAmount: CommissionAmount(revenue, rate),
	}
}

func snapshot() core.MarketSnapshot {
	return core.MarketSnapshot{
		Markets: []core.Market{
			{ID: "m1", Date: fixedNow, Place: "Place du marché", DefaultCommissionRate: 10, Status: core.MarketClosed},
			{ID: "m2", Date: fixedNow.AddDate(0, 0, 7), Place: "Halle", DefaultCommissionRate: 8, Status: core.MarketPlanned},
			{ID: "m3", Date: fixedNow.AddDate(0, 0, 14), Place: "Parc", DefaultCommissionRate: 5, Status: core.MarketPlanned},
		},
		Exhibitors: []core.Exhibitor{
			{ID: "x1", Name: "Fromagerie", Status: core.ExhibitorApproved},
			{ID: "x2", Name: "Boulangerie", Status: core.ExhibitorApproved},
			{ID: "x3", Name: "Nouveau", Status: core.ExhibitorCandidate},
		},
		Participations: []core.Participation{
			part("p1", "m1", "x1", core.ParticipationConfirmed, 1000, 10),
			part("p2", "m1", "x2", core.ParticipationConfirmed, 500, 10),
			part("p3", "m1", "x3", core.ParticipationAbsent, 0, 10),
			part("p4", "m2", "x1", core.ParticipationInvited, 200, 8),
		},
	}
}

func TestCommissionAmount(t *testing.T) {
	assert.Equal(t, 7.0, CommissionAmount(100, 7))
	assert.Equal(t, 0.0, CommissionAmount(0, 7))
	assert.Equal(t, 0.0, CommissionAmount(100, 0))
	assert.InDelta(t, 12.5, CommissionAmount(250, 5), 1e-9)
}

func TestMarketStatsConfirmedOnly(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	st := e.MarketStats("m1")
	assert.Equal(t, 1500.0, st.Revenue)
	assert.InDelta(t, 150, st.Commission, 1e-9)
	assert.Equal(t, 2, st.Exhibitors)

	st = e.MarketStats("m2")
	assert.Equal(t, Stats{}, st, "invited participations are not counted per market")
}

func TestGlobalStatsCountsEveryStatus(t *testing.T) {
	st := NewEngine(snapshot(), clock).GlobalStats()
	assert.Equal(t, 1700.0, st.Revenue)
	assert.InDelta(t, 166, st.Commission, 1e-9)
	assert.Equal(t, 1, st.ClosedMarkets)
}

func TestExhibitorStats(t *testing.T) {
	st := NewEngine(snapshot(), clock).ExhibitorStats("x1")
	assert.Equal(t, 1, st.Markets)
	assert.Equal(t, 1000.0, st.Revenue)
	assert.InDelta(t, 100, st.Unpaid, 1e-9)
}

func TestDeleteGuards(t *testing.T) {
	e := NewEngine(snapshot(), clock)

	_, err := e.DeleteMarket("m1")
	require.ErrorIs(t, err, core.ErrConstraint)
	code, _ := core.Code(err)
	assert.Equal(t, core.ReasonReferencedEntity, code)

	_, err = e.DeleteExhibitor("x2")
	require.ErrorIs(t, err, core.ErrConstraint)

	plan, err := e.DeleteMarket("m3")
	require.NoError(t, err)
	assert.Equal(t, core.OpDelete, plan.Intents[0].Op)

	_, err = e.DeleteExhibitor("nope")
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestSubmitParticipationRecomputesCommission(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	rate := 7.0
	plan, err := e.SubmitParticipation(ParticipationInput{
		MarketID: "m3", ExhibitorID: "x2", Status: core.ParticipationConfirmed,
		Revenue: "100", CommissionRate: &rate,
	})
	require.NoError(t, err)
	p := plan.Intents[0].Payload.(core.Participation)
	assert.Equal(t, 7.0, p.CommissionAmount)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, core.OpCreate, plan.Intents[0].Op)
}

func TestSubmitParticipationDefaultsRate(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	plan, err := e.SubmitParticipation(ParticipationInput{MarketID: "m3", ExhibitorID: "x3", Revenue: "40", Paid: true})
	require.NoError(t, err)
	p := plan.Intents[0].Payload.(core.Participation)
	assert.Equal(t, 5.0, p.CommissionRate)
	assert.Equal(t, 2.0, p.CommissionAmount)
	assert.Equal(t, core.ParticipationInvited, p.Status)
	assert.Equal(t, fixedNow, p.PaidAt)
}

func TestSubmitParticipationUpdate(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	rate := 10.0
	plan, err := e.SubmitParticipation(ParticipationInput{
		ID: "p2", MarketID: "m1", ExhibitorID: "x2", Status: core.ParticipationConfirmed,
		Revenue: "800", CommissionRate: &rate,
	})
	require.NoError(t, err)
	p := plan.Intents[0].Payload.(core.Participation)
	assert.Equal(t, core.OpUpdate, plan.Intents[0].Op)
	assert.Equal(t, 80.0, p.CommissionAmount)
}

func TestSubmitParticipationUpdateKeepsOwnPair(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	plan, err := e.SubmitParticipation(ParticipationInput{
		ID: "p4", MarketID: "m2", ExhibitorID: "x1", Status: core.ParticipationConfirmed, Revenue: "300",
	})
	require.NoError(t, err)
	assert.Equal(t, "p4", plan.Intents[0].ID)

	_, err = e.SubmitParticipation(ParticipationInput{
		ID: "p4", MarketID: "m3", ExhibitorID: "x1", Status: core.ParticipationInvited,
	})
	require.NoError(t, err)
}

func TestSubmitParticipationValidation(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	neg := -1.0
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		in   ParticipationInput
		code core.ReasonCode
	}{
		{"missing market", ParticipationInput{ExhibitorID: "x1"}, core.ReasonMissingField},
		{"missing exhibitor", ParticipationInput{MarketID: "m1"}, core.ReasonMissingField},
		{"unknown market", ParticipationInput{MarketID: "zz", ExhibitorID: "x1"}, core.ReasonNotFound},
		{"bad revenue", ParticipationInput{MarketID: "m3", ExhibitorID: "x1", Revenue: "beaucoup"}, core.ReasonInvalidValue},
		{"negative rate", ParticipationInput{MarketID: "m3", ExhibitorID: "x1", CommissionRate: &neg}, core.ReasonInvalidValue},
		{"NaN rate", ParticipationInput{MarketID: "m3", ExhibitorID: "x1", CommissionRate: &nan}, core.ReasonInvalidValue},
		{"infinite rate", ParticipationInput{MarketID: "m3", ExhibitorID: "x1", CommissionRate: &inf}, core.ReasonInvalidValue},
		{"duplicate", ParticipationInput{MarketID: "m1", ExhibitorID: "x1"}, core.ReasonInvalidValue},
		{"update onto taken pair", ParticipationInput{ID: "p4", MarketID: "m1", ExhibitorID: "x1"}, core.ReasonInvalidValue},
		{"bad status", ParticipationInput{MarketID: "m3", ExhibitorID: "x1", Status: "late"}, core.ReasonInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.SubmitParticipation(tt.in)
			require.ErrorIs(t, err, core.ErrValidation)
			code, _ := core.Code(err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestMarkPaid(t *testing.T) {
	e := NewEngine(snapshot(), clock)
	plan, err := e.MarkPaid("p1")
	require.NoError(t, err)
	p := plan.Intents[0].Payload.(core.Participation)
	assert.True(t, p.Paid)
	assert.Equal(t, fixedNow, p.PaidAt)
	assert.Equal(t, 100.0, p.CommissionAmount)
}

func TestMarketStatusIsPermissive(t *testing.T) {
	e := NewEngine(snapshot(), clock)

	plan, err := e.SetMarketStatus("m1", core.MarketPlanned)
	require.NoError(t, err, "backward moves are accepted")
	assert.Equal(t, core.MarketPlanned, plan.Intents[0].Payload.(core.Market).Status)

	_, err = e.SetMarketStatus("m2", core.MarketClosed)
	require.NoError(t, err, "skipping a state is accepted")

	_, err = e.SetMarketStatus("m2", "archived")
	require.ErrorIs(t, err, core.ErrValidation)

	assert.True(t, IsForwardTransition(core.MarketPlanned, core.MarketOpen))
	assert.False(t, IsForwardTransition(core.MarketPlanned, core.MarketClosed))
	assert.False(t, IsForwardTransition(core.MarketClosed, core.MarketOpen))

	plan, err = e.Advance("m2")
	require.NoError(t, err)
	assert.Equal(t, core.MarketOpen, plan.Intents[0].Payload.(core.Market).Status)

	_, err = e.Advance("m1")
	require.ErrorIs(t, err, core.ErrValidation)
}
