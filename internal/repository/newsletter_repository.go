package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/amicale/member-portal/internal/model"
)

// NewsletterRepo persists newsletter subscriptions.
type NewsletterRepo struct {
	db *sql.DB
}

func NewNewsletterRepo(db *sql.DB) *NewsletterRepo { return &NewsletterRepo{db: db} }

// Subscribe inserts an email.  A duplicate subscription returns
// ErrEmailExists so callers can treat it as an idempotent success.
func (r *NewsletterRepo) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO newsletter_subscriptions (email) VALUES (?)", email)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// ListAll returns every subscription, oldest first (admin use).
func (r *NewsletterRepo) ListAll(ctx context.Context) ([]*model.NewsletterSubscription, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, created_at FROM newsletter_subscriptions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.NewsletterSubscription, 0)
	for rows.Next() {
		var s model.NewsletterSubscription
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
