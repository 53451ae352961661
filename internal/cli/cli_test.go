package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cassa/internal/backend"
	"cassa/internal/config"
	"cassa/internal/core"
)

const seed = `
pools:
  - id: P
    name: Caisse principale
categories:
  inflow:
    - id: sales
      label: Ventes
    - id: fund
      label: Fond de caisse
  outflow:
    - id: supplies
      label: Fournitures
members:
  - id: u1
    name: Alice
    role: admin
  - id: u2
    name: Bruno
movements:
  - {id: m1, kind: inflow, categoryId: sales, amount: "100", reason: Vente, userId: u1, poolId: P, timestamp: "2024-06-10 09:00:00"}
  - {id: m2, kind: outflow, categoryId: supplies, amount: "30", reason: Papier, userId: u2, poolId: P, timestamp: "2024-06-11 09:00:00"}
  - {id: m3, kind: inflow, categoryId: sales, amount: "20", reason: Acompte, userId: u1, poolId: P, timestamp: "2024-06-12 09:00:00", status: provisional}
markets:
  - {id: mk1, date: "2024-06-01", place: Place du village, defaultCommissionRate: "10", status: closed}
exhibitors:
  - {id: x1, name: Potier, status: approved}
participations:
  - {id: pa1, marketId: mk1, exhibitorId: x1, status: confirmed, revenue: "500", commissionRate: "10"}
`

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	backend *backend.BackendResult
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	res, err := backend.NewFactory(nil).CreateBackend(context.Background(), backend.Config{
		Type:      backend.MemoryBackend,
		SeedFile:  path,
		CacheSize: 2,
		CacheTTL:  time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { res.Close() })
	return &harness{t: t, backend: res}
}

// run executes one command line and returns its standard output.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	cfg := &config.Config{
		DataBackend:             "memory",
		ResetConfirmationPhrase: "REINITIALISER",
		LogLevel:                "error",
		AppEnv:                  "development",
	}
	cmd := NewRootCommand(WithConfig(cfg), WithBackend(h.backend), WithClock(func() time.Time { return fixedNow }))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireCode(t *testing.T, err error, code core.ReasonCode) {
	t.Helper()
	require.Error(t, err)
	got, ok := core.Code(err)
	require.True(t, ok, "error carries no reason code: %v", err)
	assert.Equal(t, code, got)
	assert.Contains(t, Describe(err), "["+string(code)+"]")
}

func TestPoolsList(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "pools", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Caisse principale")
	assert.Contains(t, out, "70,00")
	assert.Contains(t, out, "90,00")
	assert.Contains(t, out, "20,00")
}

func TestMovementsListFilters(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "movements", "list", "P")
	require.NoError(t, err)
	assert.Contains(t, out, "Vente")
	assert.Contains(t, out, "-30,00")
	assert.NotContains(t, out, "Acompte")

	out, err = h.run("", "movements", "list", "P", "--provisional", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Acompte")
	assert.NotContains(t, out, "Papier")

	_, err = h.run("", "movements", "list", "P", "--period", "yesterday")
	requireCode(t, err, core.ReasonInvalidValue)
}

func TestMovementsAddAndRealize(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "movements", "add",
		"--pool", "P", "--kind", "outflow", "--category", "supplies",
		"--amount", "12,5", "--reason", "Scotch", "--user", "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "create movement: 1 applied")

	out, err = h.run("", "pools", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "57,50")

	_, err = h.run("", "movements", "add",
		"--pool", "P", "--kind", "inflow", "--category", "supplies",
		"--amount", "1", "--reason", "x", "--user", "u1")
	requireCode(t, err, core.ReasonInvalidValue)

	out, err = h.run("", "movements", "realize", "m3")
	require.NoError(t, err)
	assert.Contains(t, out, "realize movement: 1 applied")

	_, err = h.run("", "movements", "realize", "m3")
	requireCode(t, err, core.ReasonInvalidValue)
}

func TestMovementsAddReplacesByID(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "movements", "add", "--id", "m1",
		"--pool", "P", "--kind", "inflow", "--category", "sales",
		"--amount", "150", "--reason", "Vente corrigée", "--user", "u1", "--at", "2024-06-10 09:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "update movement: 1 applied")

	out, err = h.run("", "pools", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "120,00")

	_, err = h.run("", "movements", "add", "--id", "nope",
		"--pool", "P", "--kind", "inflow", "--category", "sales",
		"--amount", "1", "--reason", "x", "--user", "u1")
	requireCode(t, err, core.ReasonNotFound)
}

func TestParticipationRateFlag(t *testing.T) {
	h := newHarness(t)

	for _, bad := range []string{"NaN", "Inf", "-5", "dix"} {
		_, err := h.run("", "participations", "submit", "--id", "pa1",
			"--market", "mk1", "--exhibitor", "x1", "--rate", bad)
		requireCode(t, err, core.ReasonInvalidValue)
	}

	out, err := h.run("", "participations", "submit", "--id", "pa1",
		"--market", "mk1", "--exhibitor", "x1", "--status", "confirmed",
		"--revenue", "1000", "--rate", "7,125")
	require.NoError(t, err)
	assert.Contains(t, out, "update participation: 1 applied")

	out, err = h.run("", "markets", "stats", "mk1")
	require.NoError(t, err)
	assert.Contains(t, out, "commission: 71,25")
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "stats", "P")
	require.NoError(t, err)
	assert.Contains(t, out, "Ventes")
	assert.Contains(t, out, "100,00")
	assert.Contains(t, out, "Fournitures")
	assert.Contains(t, out, "Bruno")
}

func TestResetConfirmation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "reset", "P", "--confirm", "reinitialiser")
	requireCode(t, err, core.ReasonConfirmationMismatch)

	snap, err := h.backend.Store.LoadLedger(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Movements, 3)
}

func TestResetSeedFromPrompt(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("REINITIALISER\n", "reset", "P", "--mode", "seed", "--amount", "150", "--actor", "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "Type REINITIALISER")
	assert.Contains(t, out, "reset cash pool P: 4 applied, 0 failed, 0 skipped")

	snap, err := h.backend.Store.LoadLedger(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Movements, 1)
	m := snap.Movements[0]
	assert.Equal(t, 150.0, m.Amount)
	assert.Equal(t, "fund", m.CategoryID)
	assert.Equal(t, "u2", m.UserID)
	assert.Equal(t, fixedNow, m.Timestamp)
}

func TestMembersGuards(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "members", "delete", "u1")
	requireCode(t, err, core.ReasonLastAdminViolation)

	_, err = h.run("", "members", "toggle-role", "u1")
	requireCode(t, err, core.ReasonLastAdminViolation)

	_, err = h.run("", "categories", "delete", "sales")
	requireCode(t, err, core.ReasonReferencedEntity)

	out, err := h.run("", "members", "toggle-role", "u2")
	require.NoError(t, err)
	assert.Contains(t, out, "toggle member role: 1 applied")

	out, err = h.run("", "members", "list")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "admin"))
}

func TestMarkets(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "markets", "stats", "mk1")
	require.NoError(t, err)
	assert.Contains(t, out, "revenue: 500,00")
	assert.Contains(t, out, "commission: 50,00")

	out, err = h.run("", "markets", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "closed markets: 1")

	_, err = h.run("", "markets", "delete", "mk1")
	requireCode(t, err, core.ReasonReferencedEntity)

	_, err = h.run("", "markets", "advance", "mk1")
	requireCode(t, err, core.ReasonInvalidValue)

	out, err = h.run("", "markets", "status", "mk1", "planned")
	require.NoError(t, err)
	assert.Contains(t, out, "set market status: 1 applied")

	out, err = h.run("", "participations", "pay", "pa1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 applied")

	out, err = h.run("", "exhibitors", "stats", "x1")
	require.NoError(t, err)
	assert.Contains(t, out, "unpaid: 0,00")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	pf := &core.PartialFailure{Succeeded: 1, Failed: 1}
	assert.True(t, strings.HasPrefix(Describe(pf), core.PartialFailureMessage))
}
