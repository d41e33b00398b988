package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicale/member-portal/internal/queue"
	"github.com/amicale/member-portal/internal/repository"
)

type mockSubscriptionStore struct {
	existing map[string]bool
	inserted []string
}

func (m *mockSubscriptionStore) Subscribe(ctx context.Context, email string) error {
	if m.existing[email] {
		return repository.ErrEmailExists
	}
	m.inserted = append(m.inserted, email)
	return nil
}

type mockNewsletterPublisher struct {
	published []queue.NewsletterSubscribedEvent
}

func (m *mockNewsletterPublisher) PublishNewsletterSubscribed(ctx context.Context, ev queue.NewsletterSubscribedEvent) error {
	m.published = append(m.published, ev)
	return nil
}

func TestSubscribeEmptyEmail(t *testing.T) {
	store := &mockSubscriptionStore{}
	pub := &mockNewsletterPublisher{}
	svc := NewNewsletterService(store, pub)

	for _, email := range []string{"", "   "} {
		err := svc.Subscribe(context.Background(), email)
		assert.ErrorIs(t, err, ErrEmailRequired)
		assert.EqualError(t, err, "Email requis")
	}
	// fail fast: nothing persisted, nothing published
	assert.Empty(t, store.inserted)
	assert.Empty(t, pub.published)
}

func TestSubscribeMalformedEmail(t *testing.T) {
	store := &mockSubscriptionStore{}
	pub := &mockNewsletterPublisher{}
	svc := NewNewsletterService(store, pub)

	err := svc.Subscribe(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrEmailInvalid)
	assert.Empty(t, store.inserted)
	assert.Empty(t, pub.published)
}

func TestSubscribeSuccessPublishesEvent(t *testing.T) {
	store := &mockSubscriptionStore{}
	pub := &mockNewsletterPublisher{}
	svc := NewNewsletterService(store, pub)

	require.NoError(t, svc.Subscribe(context.Background(), "  Membre@Example.FR "))
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "membre@example.fr", store.inserted[0])
	require.Len(t, pub.published, 1)
	assert.Equal(t, "membre@example.fr", pub.published[0].Email)
}

func TestSubscribeDuplicateIsIdempotent(t *testing.T) {
	store := &mockSubscriptionStore{existing: map[string]bool{"membre@example.fr": true}}
	pub := &mockNewsletterPublisher{}
	svc := NewNewsletterService(store, pub)

	require.NoError(t, svc.Subscribe(context.Background(), "membre@example.fr"))
	// already subscribed: no new event for the delivery provider
	assert.Empty(t, pub.published)
}
