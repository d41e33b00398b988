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

// TicketStore is what the admin ticket endpoints need from storage.
// Implemented by repository.TicketRepo.
type TicketStore interface {
	ListAll(ctx context.Context) ([]*model.Ticket, error)
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	Update(ctx context.Context, t *model.Ticket) error
	Retire(ctx context.Context, id uint64) error
}

// AdminHandler groups the back-office endpoints.  Every route it serves is
// mounted behind RequireRole(ADMIN).
type AdminHandler struct {
	Tickets        TicketStore
	Orders         *repository.OrderRepo
	Waitlist       *repository.WaitlistRepo
	Reimbursements *repository.ReimbursementRepo
	Newsletter     *repository.NewsletterRepo
}

// Numeric fields are pointers so a PUT that omits one leaves the stored
// value untouched; zero is a legal value for stock and price.
type ticketReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	PriceCents  *uint32 `json:"price_cents"`
	Stock       *uint32 `json:"stock"`
	MaxPerUser  *uint32 `json:"max_per_user"`
	IsActive    *bool   `json:"is_active"`
}

type transitionReq struct {
	Status string `json:"status"`
}

type reimbursementStatusReq struct {
	Status string `json:"status"`
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// ListTickets handles GET /api/admin/tickets, retired offerings included.
func (h *AdminHandler) ListTickets(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	tickets, err := h.Tickets.ListAll(ctx)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, tickets)
}

// CreateTicket handles POST /api/admin/tickets.
func (h *AdminHandler) CreateTicket(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "name required")
	}
	if req.Category == "" {
		req.Category = model.CategoryCinema
	}
	if req.MaxPerUser == nil || *req.MaxPerUser == 0 {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "max_per_user must be positive")
	}

	t := &model.Ticket{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		MaxPerUser:  *req.MaxPerUser,
		IsActive:    true,
	}
	if req.PriceCents != nil {
		t.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		t.Stock = *req.Stock
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tickets.Create(ctx, t); err != nil {
		return response.Internal(c, err)
	}
	return response.Created(c, t)
}

// UpdateTicket handles PUT /api/admin/tickets/:id.
func (h *AdminHandler) UpdateTicket(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid ticket id")
	}
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return response.Fail(c, http.StatusNotFound, response.CodeCinemaNotFound, "offering not found")
		}
		return response.Internal(c, err)
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		t.Name = name
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if req.Category != "" {
		t.Category = req.Category
	}
	if req.PriceCents != nil {
		t.PriceCents = *req.PriceCents
	}
	if req.Stock != nil {
		t.Stock = *req.Stock
	}
	if req.MaxPerUser != nil && *req.MaxPerUser != 0 {
		t.MaxPerUser = *req.MaxPerUser
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if err := h.Tickets.Update(ctx, t); err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, t)
}

// RetireTicket handles DELETE /api/admin/tickets/:id.  Offerings are never
// removed from storage, only deactivated.
func (h *AdminHandler) RetireTicket(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid ticket id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Tickets.Retire(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return response.Fail(c, http.StatusNotFound, response.CodeCinemaNotFound, "offering not found")
		}
		return response.Internal(c, err)
	}
	return response.OK(c, map[string]bool{"retired": true})
}

// ListOrders handles GET /api/admin/orders.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, orders)
}

// TransitionOrder handles PATCH /api/admin/orders/:id/status.  The target
// status must be reachable from the order's current status.
func (h *AdminHandler) TransitionOrder(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid order id")
	}
	var req transitionReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	next, ok := model.ParseOrderStatus(req.Status)
	if !ok {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "unknown status")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Transition(ctx, id, next)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return response.Fail(c, http.StatusNotFound, response.CodeInvalidInput, "order not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			return response.Fail(c, http.StatusConflict, response.CodeInvalidTransition, "transition not allowed")
		}
		return response.Internal(c, err)
	}
	return response.OK(c, o)
}

// ListWaitlist handles GET /api/admin/waitlist, optionally filtered by
// ticket_id.
func (h *AdminHandler) ListWaitlist(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if raw := c.QueryParam("ticket_id"); raw != "" {
		ticketID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || ticketID == 0 {
			return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid ticket_id")
		}
		entries, err := h.Waitlist.ListByTicket(ctx, ticketID)
		if err != nil {
			return response.Internal(c, err)
		}
		return response.OK(c, entries)
	}
	entries, err := h.Waitlist.ListAll(ctx)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, entries)
}

// ListReimbursements handles GET /api/admin/reimbursements.
func (h *AdminHandler) ListReimbursements(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	claims, err := h.Reimbursements.ListAll(ctx)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, claims)
}

// SetReimbursementStatus handles PATCH /api/admin/reimbursements/:id/status.
func (h *AdminHandler) SetReimbursementStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid reimbursement id")
	}
	var req reimbursementStatusReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	status, ok := model.ParseReimbursementStatus(req.Status)
	if !ok {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "unknown status")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Reimbursements.SetStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrReimbursementNotFound) {
			return response.Fail(c, http.StatusNotFound, response.CodeInvalidInput, "reimbursement not found")
		}
		return response.Internal(c, err)
	}
	return response.OK(c, m)
}

// ListSubscribers handles GET /api/admin/newsletter.
func (h *AdminHandler) ListSubscribers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	subs, err := h.Newsletter.ListAll(ctx)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, subs)
}
