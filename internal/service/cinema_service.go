// Package service holds the portal's business rules behind small
// interfaces so handlers and tests can swap the persistence layer.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/amicale/member-portal/internal/config"
	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/queue"
	"github.com/amicale/member-portal/internal/repository"
)

// Sentinel errors returned by CinemaService.  Handlers map them to HTTP
// statuses and envelope codes.
var (
	ErrInvalidQuantity = errors.New("quantity out of bounds")
	ErrTicketNotFound  = errors.New("offering not found")
	ErrQuotaExceeded   = errors.New("monthly quota exceeded")
	ErrOutOfStock      = errors.New("offering out of stock")
)

// TicketStore is the slice of the ticket repository the service needs.
type TicketStore interface {
	ListActive(ctx context.Context) ([]*model.Ticket, error)
	GetActiveByID(ctx context.Context, id uint64) (*model.Ticket, error)
}

// OrderStore persists orders.  CreateWithinQuota must re-check the monthly
// cap atomically with the insert (see repository.OrderRepo).
type OrderStore interface {
	SumMonthlyQuantity(ctx context.Context, userID uint64, category string, monthStart time.Time) (uint32, error)
	CreateWithinQuota(ctx context.Context, userID, ticketID uint64, qty uint32, monthlyCap int, monthStart time.Time) (*model.Order, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error)
}

// WaitlistStore records unmet demand.
type WaitlistStore interface {
	Create(ctx context.Context, w *model.WaitlistEntry) error
}

// OrderEventPublisher publishes order events; failures are non-fatal.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error
}

// QuotaResult reports the outcome of a quota check.
type QuotaResult struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}

// CinemaService enforces the monthly purchase quota and creates orders.
type CinemaService struct {
	tickets  TicketStore
	orders   OrderStore
	waitlist WaitlistStore
	events   OrderEventPublisher
	quota    config.QuotaConfig
	now      func() time.Time
}

// NewCinemaService wires the service.  events may be nil when no broker is
// configured.
func NewCinemaService(tickets TicketStore, orders OrderStore, waitlist WaitlistStore, events OrderEventPublisher, quota config.QuotaConfig) *CinemaService {
	if tickets == nil || orders == nil || waitlist == nil {
		panic("nil store passed to NewCinemaService")
	}
	return &CinemaService{
		tickets:  tickets,
		orders:   orders,
		waitlist: waitlist,
		events:   events,
		quota:    quota,
		now:      time.Now,
	}
}

// monthStart returns the first instant of the current calendar month in
// UTC.  The quota window follows wall-clock month boundaries, not a
// rolling 30 days.
func (s *CinemaService) monthStart() time.Time {
	y, m, _ := s.now().UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// maxPerOrder is the per-order quantity ceiling for an offering: the
// configured bound further tightened by the ticket's own max_per_user.
func (s *CinemaService) maxPerOrder(t *model.Ticket) int {
	max := s.quota.MaxPerOrder
	if t.MaxPerUser > 0 && int(t.MaxPerUser) < max {
		max = int(t.MaxPerUser)
	}
	return max
}

// ListOfferings returns all active tickets.  Read-only, no side effects.
func (s *CinemaService) ListOfferings(ctx context.Context) ([]*model.Ticket, error) {
	return s.tickets.ListActive(ctx)
}

// DefaultOffering returns the first active cinema offering.  The quota
// endpoint falls back to it when the caller does not name a ticket.
func (s *CinemaService) DefaultOffering(ctx context.Context) (*model.Ticket, error) {
	list, err := s.tickets.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.Category == model.CategoryCinema {
			return t, nil
		}
	}
	return nil, ErrTicketNotFound
}

// CheckQuota reports whether ordering qty units of the offering would keep
// the user within the category's monthly cap.  Validation failures are
// returned as errors; an over-quota request is not an error but an
// Allowed=false result carrying the remaining allowance.
func (s *CinemaService) CheckQuota(ctx context.Context, userID, ticketID uint64, qty int) (QuotaResult, error) {
	// Bounds are checked against the configured ceiling before any lookup so
	// an invalid quantity fails fast regardless of the offering.
	if qty < 1 || qty > s.quota.MaxPerOrder {
		return QuotaResult{}, ErrInvalidQuantity
	}
	t, err := s.tickets.GetActiveByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return QuotaResult{}, ErrTicketNotFound
		}
		return QuotaResult{}, err
	}
	if qty > s.maxPerOrder(t) {
		return QuotaResult{}, ErrInvalidQuantity
	}

	used, err := s.orders.SumMonthlyQuantity(ctx, userID, t.Category, s.monthStart())
	if err != nil {
		return QuotaResult{}, err
	}
	remaining := s.quota.MonthlyCap - int(used)
	if remaining < 0 {
		remaining = 0
	}
	if qty > remaining {
		return QuotaResult{Allowed: false, Remaining: remaining, Reason: "QUOTA_EXCEEDED"}, nil
	}
	return QuotaResult{Allowed: true, Remaining: remaining}, nil
}

// CreateOrder re-validates bounds and quota, then persists a PENDING order
// with the total price frozen at creation time.  When stock is exhausted a
// waitlist entry is recorded instead and ErrOutOfStock returned.  The final
// quota check happens inside the store's insert transaction, so concurrent
// requests cannot oversell the cap.
func (s *CinemaService) CreateOrder(ctx context.Context, userID, ticketID uint64, qty int) (*model.Order, error) {
	if qty < 1 || qty > s.quota.MaxPerOrder {
		return nil, ErrInvalidQuantity
	}
	t, err := s.tickets.GetActiveByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if qty > s.maxPerOrder(t) {
		return nil, ErrInvalidQuantity
	}
	if int(t.Stock) < qty {
		w := &model.WaitlistEntry{UserID: userID, TicketID: ticketID, Quantity: uint32(qty)}
		if err := s.waitlist.Create(ctx, w); err != nil {
			return nil, err
		}
		return nil, ErrOutOfStock
	}

	o, err := s.orders.CreateWithinQuota(ctx, userID, ticketID, uint32(qty), s.quota.MonthlyCap, s.monthStart())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQuotaExceeded):
			return nil, ErrQuotaExceeded
		case errors.Is(err, repository.ErrTicketNotFound):
			return nil, ErrTicketNotFound
		case errors.Is(err, repository.ErrOutOfStock):
			// stock moved between the read and the locked re-check
			w := &model.WaitlistEntry{UserID: userID, TicketID: ticketID, Quantity: uint32(qty)}
			if werr := s.waitlist.Create(ctx, w); werr != nil {
				return nil, werr
			}
			return nil, ErrOutOfStock
		}
		return nil, err
	}

	if s.events != nil {
		ev := queue.OrderCreatedEvent{
			OrderID:         o.ID,
			UserID:          o.UserID,
			TicketID:        o.TicketID,
			TicketName:      t.Name,
			Category:        t.Category,
			Quantity:        o.Quantity,
			TotalPriceCents: o.TotalPriceCents,
			CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishOrderCreated(ctx, ev); err != nil {
			log.Printf("cinema: publish order event failed: %v", err)
		}
	}
	return o, nil
}

// ListOrders returns the caller's own order history, newest first.
func (s *CinemaService) ListOrders(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
