package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/repository"
	"github.com/amicale/member-portal/internal/response"
)

// BlogHandler serves the published blog, its comments and reactions.
type BlogHandler struct {
	repo *repository.BlogRepo
}

func NewBlogHandler(repo *repository.BlogRepo) *BlogHandler {
	if repo == nil {
		panic("nil repository passed to NewBlogHandler")
	}
	return &BlogHandler{repo: repo}
}

type commentReq struct {
	Content string `json:"content"`
}

type reactionReq struct {
	Kind string `json:"kind"`
}

// postDetail is the GET /api/blog/:id payload.
type postDetail struct {
	Post      *model.BlogPost      `json:"post"`
	Comments  []*model.BlogComment `json:"comments"`
	Reactions uint64               `json:"reactions"`
}

// List handles GET /api/blog?category=&q=.
func (h *BlogHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	posts, err := h.repo.ListPublished(ctx, c.QueryParam("category"), c.QueryParam("q"))
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, posts)
}

// Get handles GET /api/blog/:id and returns the post together with its
// comments and reaction count.
func (h *BlogHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid post id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	post, err := h.repo.GetPublished(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return response.Fail(c, http.StatusNotFound, response.CodeInvalidInput, "post not found")
		}
		return response.Internal(c, err)
	}
	comments, err := h.repo.ListComments(ctx, id)
	if err != nil {
		return response.Internal(c, err)
	}
	reactions, err := h.repo.CountReactions(ctx, id)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, postDetail{Post: post, Comments: comments, Reactions: reactions})
}

// CreateComment handles POST /api/blog/:id/comments.
func (h *BlogHandler) CreateComment(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid post id")
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "content required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// commenting is only allowed on posts that are actually published
	if _, err := h.repo.GetPublished(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return response.Fail(c, http.StatusNotFound, response.CodeInvalidInput, "post not found")
		}
		return response.Internal(c, err)
	}

	cm := &model.BlogComment{PostID: id, UserID: uid, Content: req.Content}
	if err := h.repo.CreateComment(ctx, cm); err != nil {
		return response.Internal(c, err)
	}
	return response.Created(c, cm)
}

// ToggleReaction handles POST /api/blog/:id/reactions.  A second call by the
// same user removes the reaction.
func (h *BlogHandler) ToggleReaction(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid post id")
	}
	var req reactionReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = "like"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetPublished(ctx, id); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return response.Fail(c, http.StatusNotFound, response.CodeInvalidInput, "post not found")
		}
		return response.Internal(c, err)
	}

	active, err := h.repo.ToggleReaction(ctx, id, uid, kind)
	if err != nil {
		return response.Internal(c, err)
	}
	count, err := h.repo.CountReactions(ctx, id)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, map[string]interface{}{"reacted": active, "reactions": count})
}
