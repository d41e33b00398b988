package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/amicale/member-portal/internal/model"
)

// ErrInvalidTransition is returned when an order status change violates the
// lifecycle state machine.  Handlers translate this into HTTP 409.
var ErrInvalidTransition = errors.New("invalid status transition")

// OrderRepo provides persistence for orders.  The create path runs the
// quota re-check and the insert inside a single transaction: the ticket row
// is locked FOR UPDATE, which serializes concurrent orders for the same
// offering and closes the check-then-insert race.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = "id, user_id, ticket_id, quantity, total_price_cents, status, created_at, updated_at"

func scanOrder(row interface{ Scan(...interface{}) error }) (*model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.TicketID, &o.Quantity, &o.TotalPriceCents,
		&status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, ErrOrderNotFound
	}
	o.Status = parsed
	return &o, nil
}

// SumMonthlyQuantity returns the total quantity across the user's
// non-cancelled orders for a ticket category created at or after monthStart.
func (r *OrderRepo) SumMonthlyQuantity(ctx context.Context, userID uint64, category string, monthStart time.Time) (uint32, error) {
	const q = `SELECT COALESCE(SUM(o.quantity), 0)
	           FROM orders o
	           JOIN tickets t ON t.id = o.ticket_id
	           WHERE o.user_id = ? AND t.category = ? AND o.status <> 'CANCELLED' AND o.created_at >= ?`
	var sum uint32
	if err := r.db.QueryRowContext(ctx, q, userID, category, monthStart).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// CreateWithinQuota inserts a PENDING order if and only if the user's
// monthly total for the ticket's category, including the new quantity,
// stays within monthlyCap.  The user row is locked first, then the ticket
// row; the month is re-summed inside the transaction and stock is
// decremented together with the insert.  Possible sentinels:
// ErrTicketNotFound, ErrOutOfStock, ErrQuotaExceeded.
func (r *OrderRepo) CreateWithinQuota(ctx context.Context, userID, ticketID uint64, qty uint32, monthlyCap int, monthStart time.Time) (*model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The cap spans every offering of the category, so locking the ticket
	// row alone is not enough: two orders for different tickets of the same
	// category would lock different rows and both re-sum a stale month
	// total.  Locking the user row serializes all of this user's order
	// creation regardless of which offering is targeted.  The user lock is
	// always taken before the ticket lock to keep lock order consistent.
	var lockedUser uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", userID).Scan(&lockedUser)
	if err != nil {
		return nil, err
	}

	// Lock the ticket row; stock checks for this offering serialize here.
	var (
		category   string
		priceCents uint32
		stock      uint32
	)
	err = tx.QueryRowContext(ctx,
		"SELECT category, price_cents, stock FROM tickets WHERE id = ? AND is_active = 1 FOR UPDATE",
		ticketID).Scan(&category, &priceCents, &stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if stock < qty {
		return nil, ErrOutOfStock
	}

	// Re-run the quota sum inside the transaction.
	const qSum = `SELECT COALESCE(SUM(o.quantity), 0)
	              FROM orders o
	              JOIN tickets t ON t.id = o.ticket_id
	              WHERE o.user_id = ? AND t.category = ? AND o.status <> 'CANCELLED' AND o.created_at >= ?`
	var used uint32
	if err := tx.QueryRowContext(ctx, qSum, userID, category, monthStart).Scan(&used); err != nil {
		return nil, err
	}
	if int(used)+int(qty) > monthlyCap {
		return nil, ErrQuotaExceeded
	}

	total := priceCents * qty // frozen at creation time
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, ticket_id, quantity, total_price_cents, status) VALUES (?, ?, ?, ?, ?)",
		userID, ticketID, qty, total, string(model.OrderPending))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE tickets SET stock = stock - ? WHERE id = ?", qty, ticketID); err != nil {
		return nil, err
	}

	// Query back the full row to populate timestamps and defaults.
	o, err := scanOrder(tx.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return o, nil
}

// ListByUser returns the caller's own orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY id DESC", userID)
}

// ListAll returns every order, newest first (admin use).
func (r *OrderRepo) ListAll(ctx context.Context) ([]*model.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY id DESC")
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetByID fetches a single order.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

// Transition moves an order to the next status, enforcing the lifecycle
// state machine under a row lock.  Returns ErrOrderNotFound or
// ErrInvalidTransition.
func (r *OrderRepo) Transition(ctx context.Context, id uint64, next model.OrderStatus) (*model.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = ? FOR UPDATE", id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	cur, ok := model.ParseOrderStatus(raw)
	if !ok {
		return nil, ErrOrderNotFound
	}
	if !cur.CanTransition(next) {
		return nil, ErrInvalidTransition
	}
	if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", string(next), id); err != nil {
		return nil, err
	}
	o, err := scanOrder(tx.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return o, nil
}
