// This file defines read-mostly access to blog posts, comments and
// reactions.  There is no workflow beyond create/read; reactions are unique
// per (post, user) via a storage-level constraint.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/amicale/member-portal/internal/model"
)

type BlogRepo struct {
	db *sql.DB
}

func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{db: db} }

const postColumns = "id, author_id, title, content, category, published, created_at, updated_at"

func scanPost(row interface{ Scan(...interface{}) error }) (*model.BlogPost, error) {
	var p model.BlogPost
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Category,
		&p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPublished returns published posts, optionally filtered by category
// and by a case-insensitive substring search over title and content.
func (r *BlogRepo) ListPublished(ctx context.Context, category, search string) ([]*model.BlogPost, error) {
	q := "SELECT " + postColumns + " FROM blog_posts WHERE published = 1"
	args := make([]interface{}, 0, 3)
	if category != "" {
		q += " AND category = ?"
		args = append(args, category)
	}
	if search != "" {
		// LOWER+LIKE gives case-insensitive substring matching regardless of
		// the column collation.
		pat := "%" + strings.ToLower(search) + "%"
		q += " AND (LOWER(title) LIKE ? OR LOWER(content) LIKE ?)"
		args = append(args, pat, pat)
	}
	q += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.BlogPost, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPublished fetches a single published post by id.
func (r *BlogRepo) GetPublished(ctx context.Context, id uint64) (*model.BlogPost, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		"SELECT "+postColumns+" FROM blog_posts WHERE id = ? AND published = 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListComments returns a post's comments, oldest first.
func (r *BlogRepo) ListComments(ctx context.Context, postID uint64) ([]*model.BlogComment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, post_id, user_id, content, created_at FROM blog_comments WHERE post_id = ? ORDER BY id", postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.BlogComment, 0)
	for rows.Next() {
		var cm model.BlogComment
		if err := rows.Scan(&cm.ID, &cm.PostID, &cm.UserID, &cm.Content, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &cm)
	}
	return out, rows.Err()
}

// CreateComment inserts a comment and populates its ID.
func (r *BlogRepo) CreateComment(ctx context.Context, cm *model.BlogComment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO blog_comments (post_id, user_id, content) VALUES (?, ?, ?)",
		cm.PostID, cm.UserID, cm.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cm.ID = uint64(id)
	return nil
}

// CountReactions returns the number of reactions on a post.
func (r *BlogRepo) CountReactions(ctx context.Context, postID uint64) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blog_reactions WHERE post_id = ?", postID).Scan(&n)
	return n, err
}

// ToggleReaction inserts the user's reaction, or removes it if the unique
// (post_id, user_id) constraint reports it already exists.  It returns true
// when a reaction exists after the call.
func (r *BlogRepo) ToggleReaction(ctx context.Context, postID, userID uint64, kind string) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO blog_reactions (post_id, user_id, kind) VALUES (?, ?, ?)",
		postID, userID, kind)
	if err == nil {
		return true, nil
	}
	// MySQL 1062 = duplicate key; the user already reacted, so toggle off.
	if strings.Contains(strings.ToLower(err.Error()), "1062") {
		_, derr := r.db.ExecContext(ctx,
			"DELETE FROM blog_reactions WHERE post_id = ? AND user_id = ?", postID, userID)
		return false, derr
	}
	return false, err
}
