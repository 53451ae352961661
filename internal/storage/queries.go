package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type (
	Pool struct {
		ID          string
		Name        string
		Description string
		Icon        string
	}

	Category struct {
		ID    string
		Kind  string
		Label string
		Icon  string
	}

	Member struct {
		ID    string
		Name  string
		Email string
		Role  string
	}

	Movement struct {
		ID          string
		PoolID      string
		Kind        string
		CategoryID  string
		AmountCents int64
		Reason      string
		UserID      string
		OccurredAt  string
		Note        string
		Status      string
	}

	Market struct {
		ID                    string
		HeldOn                string
		Place                 string
		DefaultCommissionRate float64
		Status                string
	}

	Exhibitor struct {
		ID     string
		Name   string
		Email  string
		Phone  string
		Status string
	}

	Participation struct {
		ID             string
		MarketID       string
		ExhibitorID    string
		Status         string
		RevenueCents   int64
		CommissionRate float64
		Paid           bool
		PaidAt         sql.NullString
	}
)

const listPools = `SELECT id, name, description, icon FROM pools ORDER BY rowid`

func (q *Queries) ListPools(ctx context.Context) ([]Pool, error) {
	return query(ctx, q.db, listPools, func(rows *sql.Rows) (Pool, error) {
		var p Pool
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Icon)
		return p, err
	})
}

const upsertPool = `INSERT INTO pools (id, name, description, icon) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description, icon = excluded.icon`

func (q *Queries) UpsertPool(ctx context.Context, p Pool) error {
	_, err := q.db.ExecContext(ctx, upsertPool, p.ID, p.Name, p.Description, p.Icon)
	return err
}

const listCategories = `SELECT id, kind, label, icon FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	return query(ctx, q.db, listCategories, func(rows *sql.Rows) (Category, error) {
		var c Category
		err := rows.Scan(&c.ID, &c.Kind, &c.Label, &c.Icon)
		return c, err
	})
}

const upsertCategory = `INSERT INTO categories (id, kind, label, icon) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, label = excluded.label, icon = excluded.icon`

func (q *Queries) UpsertCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, upsertCategory, c.ID, c.Kind, c.Label, c.Icon)
	return err
}

const listMembers = `SELECT id, name, email, role FROM members ORDER BY rowid`

func (q *Queries) ListMembers(ctx context.Context) ([]Member, error) {
	return query(ctx, q.db, listMembers, func(rows *sql.Rows) (Member, error) {
		var m Member
		err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role)
		return m, err
	})
}

const upsertMember = `INSERT INTO members (id, name, email, role) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, role = excluded.role`

func (q *Queries) UpsertMember(ctx context.Context, m Member) error {
	_, err := q.db.ExecContext(ctx, upsertMember, m.ID, m.Name, m.Email, m.Role)
	return err
}

const listMovements = `SELECT id, pool_id, kind, category_id, amount_cents, reason, user_id, occurred_at, note, status
FROM movements ORDER BY rowid`

func (q *Queries) ListMovements(ctx context.Context) ([]Movement, error) {
	return query(ctx, q.db, listMovements, func(rows *sql.Rows) (Movement, error) {
		var m Movement
		err := rows.Scan(&m.ID, &m.PoolID, &m.Kind, &m.CategoryID, &m.AmountCents,
			&m.Reason, &m.UserID, &m.OccurredAt, &m.Note, &m.Status)
		return m, err
	})
}

const upsertMovement = `INSERT INTO movements (id, pool_id, kind, category_id, amount_cents, reason, user_id, occurred_at, note, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET pool_id = excluded.pool_id, kind = excluded.kind, category_id = excluded.category_id,
amount_cents = excluded.amount_cents, reason = excluded.reason, user_id = excluded.user_id,
occurred_at = excluded.occurred_at, note = excluded.note, status = excluded.status`

func (q *Queries) UpsertMovement(ctx context.Context, m Movement) error {
	_, err := q.db.ExecContext(ctx, upsertMovement, m.ID, m.PoolID, m.Kind, m.CategoryID, m.AmountCents,
		m.Reason, m.UserID, m.OccurredAt, m.Note, m.Status)
	return err
}

const listMarkets = `SELECT id, held_on, place, default_commission_rate, status FROM markets ORDER BY held_on, rowid`

func (q *Queries) ListMarkets(ctx context.Context) ([]Market, error) {
	return query(ctx, q.db, listMarkets, func(rows *sql.Rows) (Market, error) {
		var m Market
		err := rows.Scan(&m.ID, &m.HeldOn, &m.Place, &m.DefaultCommissionRate, &m.Status)
		return m, err
	})
}

const upsertMarket = `INSERT INTO markets (id, held_on, place, default_commission_rate, status) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET held_on = excluded.held_on, place = excluded.place,
default_commission_rate = excluded.default_commission_rate, status = excluded.status`

func (q *Queries) UpsertMarket(ctx context.Context, m Market) error {
	_, err := q.db.ExecContext(ctx, upsertMarket, m.ID, m.HeldOn, m.Place, m.DefaultCommissionRate, m.Status)
	return err
}

const listExhibitors = `SELECT id, name, email, phone, status FROM exhibitors ORDER BY rowid`

func (q *Queries) ListExhibitors(ctx context.Context) ([]Exhibitor, error) {
	return query(ctx, q.db, listExhibitors, func(rows *sql.Rows) (Exhibitor, error) {
		var x Exhibitor
		err := rows.Scan(&x.ID, &x.Name, &x.Email, &x.Phone, &x.Status)
		return x, err
	})
}

const upsertExhibitor = `INSERT INTO exhibitors (id, name, email, phone, status) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, phone = excluded.phone, status = excluded.status`

func (q *Queries) UpsertExhibitor(ctx context.Context, x Exhibitor) error {
	_, err := q.db.ExecContext(ctx, upsertExhibitor, x.ID, x.Name, x.Email, x.Phone, x.Status)
	return err
}

const listParticipations = `SELECT id, market_id, exhibitor_id, status, revenue_cents, commission_rate, paid, paid_at
FROM participations ORDER BY rowid`

func (q *Queries) ListParticipations(ctx context.Context) ([]Participation, error) {
	return query(ctx, q.db, listParticipations, func(rows *sql.Rows) (Participation, error) {
		var p Participation
		err := rows.Scan(&p.ID, &p.MarketID, &p.ExhibitorID, &p.Status, &p.RevenueCents,
			&p.CommissionRate, &p.Paid, &p.PaidAt)
		return p, err
	})
}

const upsertParticipation = `INSERT INTO participations (id, market_id, exhibitor_id, status, revenue_cents, commission_rate, paid, paid_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET market_id = excluded.market_id, exhibitor_id = excluded.exhibitor_id,
status = excluded.status, revenue_cents = excluded.revenue_cents, commission_rate = excluded.commission_rate,
paid = excluded.paid, paid_at = excluded.paid_at`

func (q *Queries) UpsertParticipation(ctx context.Context, p Participation) error {
	_, err := q.db.ExecContext(ctx, upsertParticipation, p.ID, p.MarketID, p.ExhibitorID, p.Status,
		p.RevenueCents, p.CommissionRate, p.Paid, p.PaidAt)
	return err
}

// tables maps an entity kind to the table holding it.
var tables = map[string]string{
	"pool":          "pools",
	"category":      "categories",
	"movement":      "movements",
	"member":        "members",
	"market":        "markets",
	"exhibitor":     "exhibitors",
	"participation": "participations",
}

// Delete removes one row by id and reports how many rows went away.
func (q *Queries) Delete(ctx context.Context, entity, id string) (int64, error) {
	table, ok := tables[entity]
	if !ok {
		return 0, sql.ErrNoRows
	}
	res, err := q.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Exists reports whether a row with id is present in the entity's table.
func (q *Queries) Exists(ctx context.Context, entity, id string) (bool, error) {
	table, ok := tables[entity]
	if !ok {
		return false, sql.ErrNoRows
	}
	rows, err := q.db.QueryContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? LIMIT 1", id)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

func query[T any](ctx context.Context, db DBTX, q string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
