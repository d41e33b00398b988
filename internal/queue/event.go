// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both queues are durable.
const (
	OrderCreatedQueue         = "order.created"
	NewsletterSubscribedQueue = "newsletter.subscribed"
)

// OrderCreatedEvent is published when a ticket order is successfully
// created.  It carries enough information for downstream consumers to log
// or notify without querying the primary database.
type OrderCreatedEvent struct {
	OrderID         uint64 `json:"order_id"`
	UserID          uint64 `json:"user_id"`
	TicketID        uint64 `json:"ticket_id"`
	TicketName      string `json:"ticket_name"`
	Category        string `json:"category"`
	Quantity        uint32 `json:"quantity"`
	TotalPriceCents uint32 `json:"total_price_cents"`
	CreatedAt       string `json:"created_at"`
}

// NewsletterSubscribedEvent is published when a newsletter subscription is
// recorded.  The email-delivery provider consumes it; the portal itself
// never sends mail.
type NewsletterSubscribedEvent struct {
	Email        string `json:"email"`
	SubscribedAt string `json:"subscribed_at"`
}
