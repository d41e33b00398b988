package model

import "time"

// OrderStatus enumerates the lifecycle states of an order.  Orders are never
// deleted; they only move along this state machine.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// ParseOrderStatus maps a raw value to an OrderStatus, rejecting unknowns.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderConfirmed, OrderDelivered, OrderCancelled, OrderRefunded:
		return OrderStatus(s), true
	}
	return "", false
}

// transitions lists the allowed next states for each status.  DELIVERED,
// CANCELLED and REFUNDED are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderDelivered, OrderRefunded, OrderCancelled},
	OrderDelivered: {},
	OrderCancelled: {},
	OrderRefunded:  {},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool { return len(transitions[s]) == 0 }

// CountsTowardQuota reports whether the order's quantity is charged against
// the user's monthly quota.  Only cancelled orders give quota back.
func (s OrderStatus) CountsTowardQuota() bool { return s != OrderCancelled }

// Order is a user's purchase request against a Ticket.  TotalPriceCents is
// frozen at creation (unit price x quantity) and never recomputed.
type Order struct {
	ID              uint64      // orders.id
	UserID          uint64      // orders.user_id
	TicketID        uint64      // orders.ticket_id
	Quantity        uint32      // orders.quantity
	TotalPriceCents uint32      // orders.total_price_cents
	Status          OrderStatus // orders.status
	CreatedAt       time.Time   // orders.created_at
	UpdatedAt       time.Time   // orders.updated_at
}
