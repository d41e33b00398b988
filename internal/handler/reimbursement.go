package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/repository"
	"github.com/amicale/member-portal/internal/response"
)

// ReimbursementHandler lets members submit expense claims and follow them.
type ReimbursementHandler struct {
	repo *repository.ReimbursementRepo
}

func NewReimbursementHandler(repo *repository.ReimbursementRepo) *ReimbursementHandler {
	if repo == nil {
		panic("nil repository passed to NewReimbursementHandler")
	}
	return &ReimbursementHandler{repo: repo}
}

type reimbursementReq struct {
	Label       string `json:"label"`
	AmountCents uint32 `json:"amount_cents"`
}

// Create handles POST /api/reimbursements.  New claims always start
// SUBMITTED.
func (h *ReimbursementHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	var req reimbursementReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "label required")
	}
	if req.AmountCents == 0 {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "amount_cents must be positive")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := &model.Reimbursement{UserID: uid, Label: req.Label, AmountCents: req.AmountCents}
	if err := h.repo.Create(ctx, m); err != nil {
		return response.Internal(c, err)
	}
	return response.Created(c, m)
}

// ListMine handles GET /api/reimbursements.
func (h *ReimbursementHandler) ListMine(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	claims, err := h.repo.ListByUser(ctx, uid)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, claims)
}
