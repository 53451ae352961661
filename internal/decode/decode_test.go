package decode

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cassa/internal/core"
)

const yamlDoc = `
pools:
  - id: p1
    name: Caisse bar
categories:
  inflow:
    - id: c1
      label: Fond de caisse
    - id: c2
      label: Ventes
  outflow:
    - id: c3
      label: Achats
members:
  - id: 1
    name: Alice
    role: admin
  - id: 2
    name: Bob
movements:
  - id: m1
    kind: inflow
    category_id: c1
    amount: "150,5"
    reason: Ouverture
    user_id: 1
    pool_id: p1
    date: 2024-06-01
    time: "08:30"
  - id: m2
    kind: outflow
    amount: 12.25
    reason: Gobelets
    userId: 2
    poolId: p1
    timestamp: "2024-06-02 10:00:00"
    status: provisional
markets:
  - id: k1
    date: 2024-06-08
    place: Place centrale
    default_commission_rate: 10
exhibitors:
  - id: x1
    name: Fromagerie
participations:
  - id: q1
    market_id: k1
    exhibitor_id: x1
    status: confirmed
    revenue: "200"
    commission_rate: 7.5
    commission_amount: 999
    paid: "oui"
    paid_at: 2024-06-09
`

func TestYAMLDocument(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlDoc))
	require.NoError(t, err)

	snap, err := doc.Ledger()
	require.NoError(t, err)
	require.Len(t, snap.Pools, 1)
	require.Len(t, snap.Categories, 3)
	assert.Equal(t, core.Inflow, snap.Categories[0].Kind)
	assert.Equal(t, core.Outflow, snap.Categories[2].Kind)

	require.Len(t, snap.Members, 2)
	assert.Equal(t, "1", snap.Members[0].ID)
	assert.Equal(t, core.RoleAdmin, snap.Members[0].Role)
	assert.Equal(t, core.RoleMember, snap.Members[1].Role, "role defaults to member")

	require.Len(t, snap.Movements, 2)
	m1 := snap.Movements[0]
	assert.Equal(t, 150.5, m1.Amount)
	assert.Equal(t, time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), m1.Timestamp)
	assert.Equal(t, core.Realized, m1.Status, "status defaults to realized")
	assert.Equal(t, "1", m1.UserID)

	m2 := snap.Movements[1]
	assert.Equal(t, core.PlaceholderCategoryID, m2.CategoryID)
	assert.Equal(t, core.Provisional, m2.Status)
	assert.Equal(t, 12.25, m2.Amount)

	mk, err := doc.MarketSnapshot()
	require.NoError(t, err)
	require.Len(t, mk.Markets, 1)
	assert.Equal(t, core.MarketPlanned, mk.Markets[0].Status)
	assert.Equal(t, 10.0, mk.Markets[0].DefaultCommissionRate)
	assert.Equal(t, core.ExhibitorCandidate, mk.Exhibitors[0].Status)

	p := mk.Participations[0]
	assert.Equal(t, 15.0, p.CommissionAmount, "stored commission is recomputed")
	assert.True(t, p.Paid)
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), p.PaidAt)
}

func TestJSONDocument(t *testing.T) {
	doc, err := ParseJSON([]byte(`{
		"categories": [{"id": "c1", "kind": "outflow", "label": "Achats"}],
		"movements": [{"id": 7, "kind": "outflow", "categoryId": "c1", "amount": 19.99,
			"reason": "Glace", "userId": "u", "poolId": "p", "timestamp": "2024-06-02T09:15:00"}],
		"participations": [{"id": "q", "marketId": "k", "exhibitorId": "x"}]
	}`))
	require.NoError(t, err)

	snap, err := doc.Ledger()
	require.NoError(t, err)
	require.Len(t, snap.Movements, 1)
	assert.Equal(t, "7", snap.Movements[0].ID)
	assert.Equal(t, 19.99, snap.Movements[0].Amount)
	assert.Equal(t, time.Date(2024, 6, 2, 9, 15, 0, 0, time.UTC), snap.Movements[0].Timestamp)

	mk, err := doc.MarketSnapshot()
	require.NoError(t, err)
	assert.Equal(t, core.ParticipationInvited, mk.Participations[0].Status)
	assert.Zero(t, mk.Participations[0].CommissionAmount)
}

func TestMovementErrors(t *testing.T) {
	base := func() Record {
		return Record{
			"id": "m", "kind": "inflow", "amount": "10", "reason": "r",
			"userId": "u", "poolId": "p", "timestamp": "2024-01-01 00:00:00",
		}
	}
	tests := []struct {
		name  string
		edit  func(Record)
		code  core.ReasonCode
		field string
	}{
		{"missing amount", func(r Record) { delete(r, "amount") }, core.ReasonMissingField, "amount"},
		{"non numeric amount", func(r Record) { r["amount"] = "dix" }, core.ReasonInvalidValue, "amount"},
		{"negative amount", func(r Record) { r["amount"] = -3.0 }, core.ReasonInvalidValue, "amount"},
		{"missing timestamp", func(r Record) { delete(r, "timestamp") }, core.ReasonMissingField, "timestamp"},
		{"bad timestamp", func(r Record) { r["timestamp"] = "hier" }, core.ReasonInvalidValue, "timestamp"},
		{"bad time of day", func(r Record) { delete(r, "timestamp"); r["date"] = "2024-01-01"; r["time"] = "midi" }, core.ReasonInvalidValue, "time"},
		{"unknown kind", func(r Record) { r["kind"] = "sideways" }, core.ReasonInvalidValue, ""},
		{"missing id", func(r Record) { delete(r, "id") }, core.ReasonMissingField, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.edit(r)
			_, err := Movement(r)
			require.ErrorIs(t, err, core.ErrValidation)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.code, ve.Code)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParticipationFields(t *testing.T) {
	r := Record{
		"id": "q", "marketId": "k", "exhibitorId": "x", "revenue": 200,
		"commission_rate": 7.125, "paid_at": time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
	}
	p, err := Participation(r)
	require.NoError(t, err)
	assert.Equal(t, 7.125, p.CommissionRate, "rates keep their precision")
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), p.PaidAt)

	for _, bad := range []any{"NaN", math.Inf(1), "-2", "dix"} {
		r["commission_rate"] = bad
		_, err := Participation(r)
		var ve *core.ValidationError
		require.ErrorAs(t, err, &ve, "rate %v", bad)
		assert.Equal(t, core.ReasonInvalidValue, ve.Code)
		assert.Equal(t, "commissionRate", ve.Field)
	}
}

func TestErrorsCarryDocumentPosition(t *testing.T) {
	doc := Document{Members: []Record{{"id": "a", "name": "A"}, {"id": "b", "name": "B", "role": "boss"}}}
	_, err := doc.Ledger()
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "members[1]", ve.Field)
}

func TestUnknownCategoryKindKey(t *testing.T) {
	doc := Document{Categories: map[string]any{"sideways": []any{}}}
	_, err := doc.Ledger()
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestReadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(yamlDoc), 0o644))
	doc, err := ReadFile(yml)
	require.NoError(t, err)
	assert.Len(t, doc.Pools, 1)

	js := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"pools":[{"id":"p","name":"P"}]}`), 0o644))
	doc, err = ReadFile(js)
	require.NoError(t, err)
	assert.Len(t, doc.Pools, 1)

	_, err = ReadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
