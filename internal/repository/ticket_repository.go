// This file defines repository methods for the tickets table.  Tickets are
// the offerings sold on the portal (cinema seats, show vouchers, ...) and
// are mutated by administrative CRUD only.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amicale/member-portal/internal/model"
)

// TicketRepo encapsulates all database queries related to tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the provided DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

const ticketColumns = "id, name, description, category, price_cents, stock, max_per_user, is_active, created_at, updated_at"

func scanTicket(row interface{ Scan(...interface{}) error }) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.PriceCents,
		&t.Stock, &t.MaxPerUser, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new ticket.  On success the ID field is populated and a
// follow-up SELECT fills in the timestamp defaults so callers receive a
// fully populated record.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const qInsert = `INSERT INTO tickets (name, description, category, price_cents, stock, max_per_user, is_active)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, t.Name, t.Description, t.Category,
		t.PriceCents, t.Stock, t.MaxPerUser, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	got, err := scanTicket(r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = ?", t.ID))
	if err != nil {
		return err
	}
	*t = *got
	return nil
}

// GetActiveByID fetches an active ticket by id.  Retired or missing
// offerings return ErrTicketNotFound.
func (r *TicketRepo) GetActiveByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id = ? AND is_active = 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetByID fetches a ticket regardless of its active flag (admin use).
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListActive returns all active offerings ordered by id.
func (r *TicketRepo) ListActive(ctx context.Context) ([]*model.Ticket, error) {
	return r.list(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE is_active = 1 ORDER BY id")
}

// ListAll returns every offering including retired ones (admin use).
func (r *TicketRepo) ListAll(ctx context.Context) ([]*model.Ticket, error) {
	return r.list(ctx, "SELECT "+ticketColumns+" FROM tickets ORDER BY id")
}

func (r *TicketRepo) list(ctx context.Context, q string) ([]*model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a ticket.  ErrTicketNotFound is
// returned when no row matches.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets SET name=?, description=?, category=?, price_cents=?, stock=?, max_per_user=?, is_active=?
	           WHERE id=?`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Description, t.Category,
		t.PriceCents, t.Stock, t.MaxPerUser, t.IsActive, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// the row may exist with identical values; distinguish via lookup
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// Retire soft-deletes an offering by clearing its active flag.
func (r *TicketRepo) Retire(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tickets SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
