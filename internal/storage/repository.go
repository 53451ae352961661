package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cassa/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")
	ErrPayload   = errors.New("payload does not match entity kind")

	// ErrConstraint marks writes rejected by a UNIQUE, CHECK or FOREIGN KEY
	// constraint. Retrying them cannot succeed.
	ErrConstraint = errors.New("constraint violation")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadLedger reads every pool, category, member and movement in insertion order.
func (r *SQLiteRepository) LoadLedger(ctx context.Context) (core.LedgerSnapshot, error) {
	var snap core.LedgerSnapshot

	pools, err := r.queries.ListPools(ctx)
	if err != nil {
		return snap, fmt.Errorf("list pools: %w", err)
	}
	for _, p := range pools {
		snap.Pools = append(snap.Pools, core.CashPool{ID: p.ID, Name: p.Name, Description: p.Description, Icon: p.Icon})
	}

	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return snap, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		snap.Categories = append(snap.Categories, core.Category{ID: c.ID, Kind: core.Kind(c.Kind), Label: c.Label, Icon: c.Icon})
	}

	members, err := r.queries.ListMembers(ctx)
	if err != nil {
		return snap, fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		snap.Members = append(snap.Members, core.TeamMember{ID: m.ID, Name: m.Name, Email: m.Email, Role: core.Role(m.Role)})
	}

	movements, err := r.queries.ListMovements(ctx)
	if err != nil {
		return snap, fmt.Errorf("list movements: %w", err)
	}
	for _, m := range movements {
		ts, err := time.Parse(core.TimestampLayout, m.OccurredAt)
		if err != nil {
			return snap, fmt.Errorf("movement %s: parse timestamp: %w", m.ID, err)
		}
		snap.Movements = append(snap.Movements, core.Movement{
			ID:         m.ID,
			Kind:       core.Kind(m.Kind),
			CategoryID: m.CategoryID,
			Amount:     core.FromCents(m.AmountCents),
			Reason:     m.Reason,
			UserID:     m.UserID,
			Timestamp:  ts,
			Note:       m.Note,
			PoolID:     m.PoolID,
			Status:     core.Status(m.Status),
		})
	}

	return snap, nil
}

// LoadMarkets reads markets by date, then exhibitors and participations.
// Commission amounts are derived from revenue and rate, never stored.
func (r *SQLiteRepository) LoadMarkets(ctx context.Context) (core.MarketSnapshot, error) {
	var snap core.MarketSnapshot

	markets, err := r.queries.ListMarkets(ctx)
	if err != nil {
		return snap, fmt.Errorf("list markets: %w", err)
	}
	for _, m := range markets {
		date, err := time.Parse(core.TimestampLayout, m.HeldOn)
		if err != nil {
			return snap, fmt.Errorf("market %s: parse date: %w", m.ID, err)
		}
		snap.Markets = append(snap.Markets, core.Market{
			ID:                    m.ID,
			Date:                  date,
			Place:                 m.Place,
			DefaultCommissionRate: m.DefaultCommissionRate,
			Status:                core.MarketStatus(m.Status),
		})
	}

	exhibitors, err := r.queries.ListExhibitors(ctx)
	if err != nil {
		return snap, fmt.Errorf("list exhibitors: %w", err)
	}
	for _, x := range exhibitors {
		snap.Exhibitors = append(snap.Exhibitors, core.Exhibitor{
			ID: x.ID, Name: x.Name, Email: x.Email, Phone: x.Phone, Status: core.ExhibitorStatus(x.Status),
		})
	}

	parts, err := r.queries.ListParticipations(ctx)
	if err != nil {
		return snap, fmt.Errorf("list participations: %w", err)
	}
	for _, p := range parts {
		revenue := core.FromCents(p.RevenueCents)
		cp := core.Participation{
			ID:               p.ID,
			MarketID:         p.MarketID,
			ExhibitorID:      p.ExhibitorID,
			Status:           core.ParticipationStatus(p.Status),
			Revenue:          revenue,
			CommissionRate:   p.CommissionRate,
			CommissionAmount: revenue * p.CommissionRate / 100,
			Paid:             p.Paid,
		}
		if p.PaidAt.Valid {
			at, err := time.Parse(core.TimestampLayout, p.PaidAt.String)
			if err != nil {
				return snap, fmt.Errorf("participation %s: parse paid_at: %w", p.ID, err)
			}
			cp.PaidAt = at
		}
		snap.Participations = append(snap.Participations, cp)
	}

	return snap, nil
}

// Execute implements core.Executor against the database.
func (r *SQLiteRepository) Execute(ctx context.Context, in core.Intent) error {
	if err := in.Validate(); err != nil {
		return err
	}

	if in.Op == core.OpDelete {
		n, err := r.queries.Delete(ctx, string(in.Entity), in.ID)
		if err != nil {
			return fmt.Errorf("delete %s %s: %w", in.Entity, in.ID, constraint(err))
		}
		if n == 0 {
			return fmt.Errorf("delete %s %s: %w", in.Entity, in.ID, ErrNotFound)
		}
		slog.DebugContext(ctx, "Intent applied to SQLite", "intent", in.String())
		return nil
	}

	exists, err := r.queries.Exists(ctx, string(in.Entity), in.ID)
	if err != nil {
		return fmt.Errorf("lookup %s %s: %w", in.Entity, in.ID, err)
	}
	switch {
	case in.Op == core.OpCreate && exists:
		return fmt.Errorf("create %s %s: %w", in.Entity, in.ID, ErrDuplicate)
	case in.Op == core.OpUpdate && !exists:
		return fmt.Errorf("update %s %s: %w", in.Entity, in.ID, ErrNotFound)
	}

	if err := r.write(ctx, in); err != nil {
		return fmt.Errorf("%s %s %s: %w", in.Op, in.Entity, in.ID, constraint(err))
	}
	slog.DebugContext(ctx, "Intent applied to SQLite", "intent", in.String())
	return nil
}

// constraint tags SQLite constraint failures with ErrConstraint and returns
// every other error unchanged.
func constraint(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}

func (r *SQLiteRepository) write(ctx context.Context, in core.Intent) error {
	switch v := in.Payload.(type) {
	case core.CashPool:
		if in.Entity != core.EntityPool {
			return ErrPayload
		}
		return r.queries.UpsertPool(ctx, Pool{ID: in.ID, Name: v.Name, Description: v.Description, Icon: v.Icon})
	case core.Category:
		if in.Entity != core.EntityCategory {
			return ErrPayload
		}
		return r.queries.UpsertCategory(ctx, Category{ID: in.ID, Kind: string(v.Kind), Label: v.Label, Icon: v.Icon})
	case core.TeamMember:
		if in.Entity != core.EntityMember {
			return ErrPayload
		}
		return r.queries.UpsertMember(ctx, Member{ID: in.ID, Name: v.Name, Email: v.Email, Role: string(v.Role)})
	case core.Movement:
		if in.Entity != core.EntityMovement {
			return ErrPayload
		}
		return r.queries.UpsertMovement(ctx, Movement{
			ID:          in.ID,
			PoolID:      v.PoolID,
			Kind:        string(v.Kind),
			CategoryID:  v.CategoryID,
			AmountCents: core.Cents(v.Amount),
			Reason:      v.Reason,
			UserID:      v.UserID,
			OccurredAt:  core.Naive(v.Timestamp).Format(core.TimestampLayout),
			Note:        v.Note,
			Status:      string(v.Status),
		})
	case core.Market:
		if in.Entity != core.EntityMarket {
			return ErrPayload
		}
		return r.queries.UpsertMarket(ctx, Market{
			ID:                    in.ID,
			HeldOn:                core.Naive(v.Date).Format(core.TimestampLayout),
			Place:                 v.Place,
			DefaultCommissionRate: v.DefaultCommissionRate,
			Status:                string(v.Status),
		})
	case core.Exhibitor:
		if in.Entity != core.EntityExhibitor {
			return ErrPayload
		}
		return r.queries.UpsertExhibitor(ctx, Exhibitor{ID: in.ID, Name: v.Name, Email: v.Email, Phone: v.Phone, Status: string(v.Status)})
	case core.Participation:
		if in.Entity != core.EntityParticipation {
			return ErrPayload
		}
		p := Participation{
			ID:             in.ID,
			MarketID:       v.MarketID,
			ExhibitorID:    v.ExhibitorID,
			Status:         string(v.Status),
			RevenueCents:   core.Cents(v.Revenue),
			CommissionRate: v.CommissionRate,
			Paid:           v.Paid,
		}
		if !v.PaidAt.IsZero() {
			p.PaidAt = sql.NullString{String: core.Naive(v.PaidAt).Format(core.TimestampLayout), Valid: true}
		}
		return r.queries.UpsertParticipation(ctx, p)
	default:
		return ErrPayload
	}
}

// ImportSnapshots writes both snapshots in one transaction, replacing rows
// with the same ids. It is how a seed document reaches a fresh database.
func (r *SQLiteRepository) ImportSnapshots(ctx context.Context, ledger core.LedgerSnapshot, market core.MarketSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	txRepo := &SQLiteRepository{db: r.db, queries: r.queries.WithTx(tx)}
	var intents []core.Intent
	for _, p := range ledger.Pools {
		intents = append(intents, core.CreateIntent(core.EntityPool, p.ID, p))
	}
	for _, c := range ledger.Categories {
		intents = append(intents, core.CreateIntent(core.EntityCategory, c.ID, c))
	}
	for _, m := range ledger.Members {
		intents = append(intents, core.CreateIntent(core.EntityMember, m.ID, m))
	}
	for _, m := range ledger.Movements {
		intents = append(intents, core.CreateIntent(core.EntityMovement, m.ID, m))
	}
	for _, m := range market.Markets {
		intents = append(intents, core.CreateIntent(core.EntityMarket, m.ID, m))
	}
	for _, x := range market.Exhibitors {
		intents = append(intents, core.CreateIntent(core.EntityExhibitor, x.ID, x))
	}
	for _, p := range market.Participations {
		intents = append(intents, core.CreateIntent(core.EntityParticipation, p.ID, p))
	}
	for _, in := range intents {
		if err := txRepo.write(ctx, in); err != nil {
			return fmt.Errorf("import %s: %w", in, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	slog.InfoContext(ctx, "Snapshot imported to SQLite", "intents", len(intents))
	return nil
}
