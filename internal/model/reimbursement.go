package model

import "time"

// ReimbursementStatus enumerates the states of a reimbursement request.
type ReimbursementStatus string

const (
	ReimbursementSubmitted ReimbursementStatus = "SUBMITTED"
	ReimbursementApproved  ReimbursementStatus = "APPROVED"
	ReimbursementRejected  ReimbursementStatus = "REJECTED"
	ReimbursementPaid      ReimbursementStatus = "PAID"
)

// ParseReimbursementStatus maps a raw value to a status, rejecting unknowns.
func ParseReimbursementStatus(s string) (ReimbursementStatus, bool) {
	switch ReimbursementStatus(s) {
	case ReimbursementSubmitted, ReimbursementApproved, ReimbursementRejected, ReimbursementPaid:
		return ReimbursementStatus(s), true
	}
	return "", false
}

// Reimbursement is a member's expense claim handled by administrators.
type Reimbursement struct {
	ID          uint64              // reimbursements.id
	UserID      uint64              // reimbursements.user_id
	Label       string              // reimbursements.label
	AmountCents uint32              // reimbursements.amount_cents
	Status      ReimbursementStatus // reimbursements.status
	CreatedAt   time.Time           // reimbursements.created_at
	UpdatedAt   time.Time           // reimbursements.updated_at
}

// NewsletterSubscription is a row of `newsletter_subscriptions`.
type NewsletterSubscription struct {
	ID        uint64    // newsletter_subscriptions.id
	Email     string    // newsletter_subscriptions.email
	CreatedAt time.Time // newsletter_subscriptions.created_at
}
