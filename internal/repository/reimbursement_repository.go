package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/amicale/member-portal/internal/model"
)

// ErrReimbursementNotFound is returned when a reimbursement row is missing.
var ErrReimbursementNotFound = errors.New("reimbursement not found")

// ReimbursementRepo persists member expense claims.
type ReimbursementRepo struct {
	db *sql.DB
}

func NewReimbursementRepo(db *sql.DB) *ReimbursementRepo { return &ReimbursementRepo{db: db} }

const reimbursementColumns = "id, user_id, label, amount_cents, status, created_at, updated_at"

func scanReimbursement(row interface{ Scan(...interface{}) error }) (*model.Reimbursement, error) {
	var (
		m      model.Reimbursement
		status string
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Label, &m.AmountCents, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, ok := model.ParseReimbursementStatus(status)
	if !ok {
		return nil, ErrReimbursementNotFound
	}
	m.Status = parsed
	return &m, nil
}

// Create inserts a SUBMITTED reimbursement and populates its ID.
func (r *ReimbursementRepo) Create(ctx context.Context, m *model.Reimbursement) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reimbursements (user_id, label, amount_cents, status) VALUES (?, ?, ?, ?)",
		m.UserID, m.Label, m.AmountCents, string(model.ReimbursementSubmitted))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.Status = model.ReimbursementSubmitted
	return nil
}

// ListByUser returns the caller's own claims, newest first.
func (r *ReimbursementRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Reimbursement, error) {
	return r.list(ctx, "SELECT "+reimbursementColumns+" FROM reimbursements WHERE user_id = ? ORDER BY id DESC", userID)
}

// ListAll returns every claim, newest first (admin use).
func (r *ReimbursementRepo) ListAll(ctx context.Context) ([]*model.Reimbursement, error) {
	return r.list(ctx, "SELECT "+reimbursementColumns+" FROM reimbursements ORDER BY id DESC")
}

func (r *ReimbursementRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Reimbursement, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.Reimbursement, 0)
	for rows.Next() {
		m, err := scanReimbursement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SetStatus updates a claim's status.
func (r *ReimbursementRepo) SetStatus(ctx context.Context, id uint64, status model.ReimbursementStatus) (*model.Reimbursement, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reimbursements SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// either missing or unchanged; a lookup disambiguates
		if _, gerr := r.get(ctx, id); gerr != nil {
			return nil, gerr
		}
	}
	return r.get(ctx, id)
}

func (r *ReimbursementRepo) get(ctx context.Context, id uint64) (*model.Reimbursement, error) {
	m, err := scanReimbursement(r.db.QueryRowContext(ctx,
		"SELECT "+reimbursementColumns+" FROM reimbursements WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReimbursementNotFound
		}
		return nil, err
	}
	return m, nil
}
