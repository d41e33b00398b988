package model

import "time"

// Ticket categories currently sold by the works council.  The category ties
// an offering to its monthly quota configuration.
const (
	CategoryCinema = "CINEMA"
)

// Ticket is a purchasable offering managed by administrators.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name (e.g. "Cinéma Pathé - place unique").
//  Description – free-form description shown on the portal.
//  Category    – offering category used for quota accounting.
//  PriceCents  – unit price in cents, frozen into orders at creation time.
//  Stock       – remaining units available for sale.
//  MaxPerUser  – per-order quantity ceiling for this offering.
//  IsActive    – retired offerings stay in the table but are not sold.
type Ticket struct {
	ID          uint64    // tickets.id
	Name        string    // tickets.name
	Description string    // tickets.description
	Category    string    // tickets.category
	PriceCents  uint32    // tickets.price_cents
	Stock       uint32    // tickets.stock
	MaxPerUser  uint32    // tickets.max_per_user
	IsActive    bool      // tickets.is_active
	CreatedAt   time.Time // tickets.created_at
	UpdatedAt   time.Time // tickets.updated_at
}

// WaitlistEntry records unmet demand when an offering runs out of stock.
// Entries are never promoted automatically; an administrator handles them.
type WaitlistEntry struct {
	ID        uint64    // waitlist_entries.id
	UserID    uint64    // waitlist_entries.user_id
	TicketID  uint64    // waitlist_entries.ticket_id
	Quantity  uint32    // waitlist_entries.quantity
	CreatedAt time.Time // waitlist_entries.created_at
}
