package model

import "time"

// BlogPost is an article published on the portal.  Unpublished rows are
// drafts and never served by the API.
type BlogPost struct {
	ID        uint64    // blog_posts.id
	AuthorID  uint64    // blog_posts.author_id
	Title     string    // blog_posts.title
	Content   string    // blog_posts.content
	Category  string    // blog_posts.category
	Published bool      // blog_posts.published
	CreatedAt time.Time // blog_posts.created_at
	UpdatedAt time.Time // blog_posts.updated_at
}

// BlogComment is a member comment attached to a post.
type BlogComment struct {
	ID        uint64    // blog_comments.id
	PostID    uint64    // blog_comments.post_id
	UserID    uint64    // blog_comments.user_id
	Content   string    // blog_comments.content
	CreatedAt time.Time // blog_comments.created_at
}

// BlogReaction records a single reaction per user per post.  Uniqueness of
// (post_id, user_id) is enforced by the database.
type BlogReaction struct {
	ID        uint64    // blog_reactions.id
	PostID    uint64    // blog_reactions.post_id
	UserID    uint64    // blog_reactions.user_id
	Kind      string    // blog_reactions.kind (e.g. "like")
	CreatedAt time.Time // blog_reactions.created_at
}
