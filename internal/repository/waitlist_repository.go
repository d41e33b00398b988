package repository

import (
	"context"
	"database/sql"

	"github.com/amicale/member-portal/internal/model"
)

// WaitlistRepo records unmet demand when an offering is out of stock.
// Entries are read by administrators; nothing promotes them automatically.
type WaitlistRepo struct {
	db *sql.DB
}

func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// Create inserts a waitlist entry and populates its ID.
func (r *WaitlistRepo) Create(ctx context.Context, w *model.WaitlistEntry) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO waitlist_entries (user_id, ticket_id, quantity) VALUES (?, ?, ?)",
		w.UserID, w.TicketID, w.Quantity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// ListByTicket returns waitlist entries for one offering, oldest first.
func (r *WaitlistRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]*model.WaitlistEntry, error) {
	return r.list(ctx, "SELECT id, user_id, ticket_id, quantity, created_at FROM waitlist_entries WHERE ticket_id = ? ORDER BY id", ticketID)
}

// ListAll returns every waitlist entry, oldest first (admin use).
func (r *WaitlistRepo) ListAll(ctx context.Context) ([]*model.WaitlistEntry, error) {
	return r.list(ctx, "SELECT id, user_id, ticket_id, quantity, created_at FROM waitlist_entries ORDER BY id")
}

func (r *WaitlistRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.WaitlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.WaitlistEntry, 0)
	for rows.Next() {
		var w model.WaitlistEntry
		if err := rows.Scan(&w.ID, &w.UserID, &w.TicketID, &w.Quantity, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}
