package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/amicale/member-portal/internal/queue"
	"github.com/amicale/member-portal/internal/repository"
)

// Sentinel errors returned by NewsletterService.  The messages stay in
// French because the portal's forms render them verbatim.
var (
	ErrEmailRequired = errors.New("Email requis")
	ErrEmailInvalid  = errors.New("Email invalide")
)

// SubscriptionStore persists newsletter subscriptions.
type SubscriptionStore interface {
	Subscribe(ctx context.Context, email string) error
}

// NewsletterEventPublisher hands off the email-delivery provider's event.
type NewsletterEventPublisher interface {
	PublishNewsletterSubscribed(ctx context.Context, ev queue.NewsletterSubscribedEvent) error
}

// NewsletterService validates an email and forwards it to the delivery
// provider via the broker.  Validation runs before any persistence or
// publish call: an empty or malformed email causes no side effects at all.
type NewsletterService struct {
	store  SubscriptionStore
	events NewsletterEventPublisher
	now    func() time.Time
}

// NewNewsletterService wires the service.  events may be nil when no
// broker is configured.
func NewNewsletterService(store SubscriptionStore, events NewsletterEventPublisher) *NewsletterService {
	if store == nil {
		panic("nil store passed to NewNewsletterService")
	}
	return &NewsletterService{store: store, events: events, now: time.Now}
}

// Subscribe records the email.  A duplicate subscription is treated as
// success so the form stays idempotent; the event is only published for a
// first-time subscription.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrEmailInvalid
	}

	if err := s.store.Subscribe(ctx, email); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil
		}
		return err
	}

	if s.events != nil {
		ev := queue.NewsletterSubscribedEvent{
			Email:        email,
			SubscribedAt: s.now().UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishNewsletterSubscribed(ctx, ev); err != nil {
			log.Printf("newsletter: publish subscription event failed: %v", err)
		}
	}
	return nil
}
