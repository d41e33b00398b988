package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/response"
	"github.com/amicale/member-portal/internal/service"
)

// CinemaProvider is the slice of the cinema service the handler needs.
// Tests substitute a mock.
type CinemaProvider interface {
	ListOfferings(ctx context.Context) ([]*model.Ticket, error)
	DefaultOffering(ctx context.Context) (*model.Ticket, error)
	CheckQuota(ctx context.Context, userID, ticketID uint64, qty int) (service.QuotaResult, error)
	CreateOrder(ctx context.Context, userID, ticketID uint64, qty int) (*model.Order, error)
	ListOrders(ctx context.Context, userID uint64) ([]*model.Order, error)
}

// CinemaHandler exposes the ticket offering and ordering endpoints.
type CinemaHandler struct {
	svc CinemaProvider
}

func NewCinemaHandler(svc CinemaProvider) *CinemaHandler {
	if svc == nil {
		panic("nil service passed to NewCinemaHandler")
	}
	return &CinemaHandler{svc: svc}
}

type createOrderReq struct {
	CinemaID uint64 `json:"cinema_id"`
	Quantity int    `json:"quantity"`
}

// ListOfferings handles GET /api/cinema.
func (h *CinemaHandler) ListOfferings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	tickets, err := h.svc.ListOfferings(ctx)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, tickets)
}

// CheckQuota handles GET /api/cinema/quota?quantity=N[&ticket_id=ID].
// Without a ticket_id the first active cinema offering is used.
func (h *CinemaHandler) CheckQuota(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	qty, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidQuantity, "quantity must be a number")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ticketID := uint64(0)
	if raw := c.QueryParam("ticket_id"); raw != "" {
		ticketID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil || ticketID == 0 {
			return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid ticket_id")
		}
	} else {
		t, err := h.svc.DefaultOffering(ctx)
		if err != nil {
			if errors.Is(err, service.ErrTicketNotFound) {
				return response.Fail(c, http.StatusNotFound, response.CodeCinemaNotFound, "no cinema offering available")
			}
			return response.Internal(c, err)
		}
		ticketID = t.ID
	}

	res, err := h.svc.CheckQuota(ctx, uid, ticketID, qty)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			return response.Fail(c, http.StatusBadRequest, response.CodeInvalidQuantity, "quantity out of bounds")
		case errors.Is(err, service.ErrTicketNotFound):
			return response.Fail(c, http.StatusNotFound, response.CodeCinemaNotFound, "offering not found")
		}
		return response.Internal(c, err)
	}
	return response.OK(c, res)
}

// CreateOrder handles POST /api/cinema/orders.
func (h *CinemaHandler) CreateOrder(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid body")
	}
	if req.CinemaID == 0 {
		return response.Fail(c, http.StatusBadRequest, response.CodeInvalidInput, "cinema_id required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.svc.CreateOrder(ctx, uid, req.CinemaID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidQuantity):
			return response.Fail(c, http.StatusBadRequest, response.CodeInvalidQuantity, "quantity out of bounds")
		case errors.Is(err, service.ErrTicketNotFound):
			return response.Fail(c, http.StatusNotFound, response.CodeCinemaNotFound, "offering not found")
		case errors.Is(err, service.ErrQuotaExceeded):
			return response.Fail(c, http.StatusConflict, response.CodeQuotaExceeded, "monthly quota exceeded")
		case errors.Is(err, service.ErrOutOfStock):
			return response.Fail(c, http.StatusConflict, response.CodeOutOfStock, "offering out of stock, added to waitlist")
		}
		return response.Internal(c, err)
	}
	return response.Created(c, o)
}

// ListOrders handles GET /api/cinema/orders; the caller only ever sees
// their own history.
func (h *CinemaHandler) ListOrders(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return response.Fail(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	orders, err := h.svc.ListOrders(ctx, uid)
	if err != nil {
		return response.Internal(c, err)
	}
	return response.OK(c, orders)
}
