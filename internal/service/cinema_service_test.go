package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicale/member-portal/internal/config"
	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/queue"
	"github.com/amicale/member-portal/internal/repository"
)

// --- Mock stores ---

type mockTicketStore struct {
	tickets map[uint64]*model.Ticket
}

func (m *mockTicketStore) ListActive(ctx context.Context) ([]*model.Ticket, error) {
	out := make([]*model.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTicketStore) GetActiveByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok || !t.IsActive {
		return nil, repository.ErrTicketNotFound
	}
	return t, nil
}

// mockOrderStore mimics the repository's quota-guarded insert: the sum is
// re-checked inside CreateWithinQuota, exactly like the SQL transaction.
type mockOrderStore struct {
	tickets *mockTicketStore
	used    uint32 // quantity already consumed this month
	orders  []*model.Order
	nextID  uint64
}

func (m *mockOrderStore) SumMonthlyQuantity(ctx context.Context, userID uint64, category string, monthStart time.Time) (uint32, error) {
	return m.used, nil
}

func (m *mockOrderStore) CreateWithinQuota(ctx context.Context, userID, ticketID uint64, qty uint32, cap int, monthStart time.Time) (*model.Order, error) {
	t, ok := m.tickets.tickets[ticketID]
	if !ok || !t.IsActive {
		return nil, repository.ErrTicketNotFound
	}
	if t.Stock < qty {
		return nil, repository.ErrOutOfStock
	}
	if int(m.used)+int(qty) > cap {
		return nil, repository.ErrQuotaExceeded
	}
	m.nextID++
	o := &model.Order{
		ID:              m.nextID,
		UserID:          userID,
		TicketID:        ticketID,
		Quantity:        qty,
		TotalPriceCents: t.PriceCents * qty,
		Status:          model.OrderPending,
		CreatedAt:       time.Now().UTC(),
	}
	m.used += qty
	t.Stock -= qty
	m.orders = append(m.orders, o)
	return o, nil
}

func (m *mockOrderStore) ListByUser(ctx context.Context, userID uint64) ([]*model.Order, error) {
	return m.orders, nil
}

type mockWaitlistStore struct {
	entries []*model.WaitlistEntry
}

func (m *mockWaitlistStore) Create(ctx context.Context, w *model.WaitlistEntry) error {
	w.ID = uint64(len(m.entries) + 1)
	m.entries = append(m.entries, w)
	return nil
}

type mockOrderPublisher struct {
	published []queue.OrderCreatedEvent
}

func (m *mockOrderPublisher) PublishOrderCreated(ctx context.Context, ev queue.OrderCreatedEvent) error {
	m.published = append(m.published, ev)
	return nil
}

// --- Fixtures ---

func cinemaTicket() *model.Ticket {
	return &model.Ticket{
		ID:         1,
		Name:       "Place cinéma",
		Category:   model.CategoryCinema,
		PriceCents: 650,
		Stock:      100,
		MaxPerUser: 5,
		IsActive:   true,
	}
}

func newFixture(used uint32) (*CinemaService, *mockOrderStore, *mockWaitlistStore, *mockOrderPublisher) {
	tickets := &mockTicketStore{tickets: map[uint64]*model.Ticket{1: cinemaTicket()}}
	orders := &mockOrderStore{tickets: tickets, used: used}
	waitlist := &mockWaitlistStore{}
	pub := &mockOrderPublisher{}
	svc := NewCinemaService(tickets, orders, waitlist, pub, config.QuotaConfig{MonthlyCap: 5, MaxPerOrder: 5})
	return svc, orders, waitlist, pub
}

// --- Tests ---

func TestCheckQuotaInvalidQuantity(t *testing.T) {
	svc, _, _, _ := newFixture(0)
	for _, q := range []int{0, -1, 6, 100} {
		_, err := svc.CheckQuota(context.Background(), 7, 1, q)
		assert.ErrorIsf(t, err, ErrInvalidQuantity, "quantity %d", q)
	}
}

func TestCheckQuotaUnknownOffering(t *testing.T) {
	svc, _, _, _ := newFixture(0)
	_, err := svc.CheckQuota(context.Background(), 7, 99, 1)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

// User has 4 of 5 units used this month: requesting 2 is refused with the
// remaining allowance reported, requesting 1 is allowed.
func TestCheckQuotaRemainingAllowance(t *testing.T) {
	svc, _, _, _ := newFixture(4)

	res, err := svc.CheckQuota(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, "QUOTA_EXCEEDED", res.Reason)

	res, err = svc.CheckQuota(context.Background(), 7, 1, 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestCreateOrderFreezesTotalPrice(t *testing.T) {
	svc, orders, _, pub := newFixture(0)

	o, err := svc.CreateOrder(context.Background(), 7, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, uint32(3), o.Quantity)
	assert.Equal(t, uint32(650*3), o.TotalPriceCents)
	assert.Len(t, orders.orders, 1)
	require.Len(t, pub.published, 1)
	assert.Equal(t, o.ID, pub.published[0].OrderID)
}

// With 4 units used of a cap of 5: quantity 2 fails with
// QUOTA_EXCEEDED and creates no row; quantity 1 then succeeds.
func TestCreateOrderQuotaBoundary(t *testing.T) {
	svc, orders, _, _ := newFixture(4)

	_, err := svc.CreateOrder(context.Background(), 7, 1, 2)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Empty(t, orders.orders, "refused order must not create a row")

	o, err := svc.CreateOrder(context.Background(), 7, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, uint32(650), o.TotalPriceCents)
}

func TestCreateOrderExhaustsQuotaThenRefuses(t *testing.T) {
	svc, _, _, _ := newFixture(0)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, 7, 1, 5)
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, 7, 1, 1)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

// The monthly cap is charged per user per category, not per offering: a
// second cinema ticket must not open a fresh allowance.  The store enforces
// this by summing across the whole category under the user-row lock.
func TestCreateOrderCapSpansOfferings(t *testing.T) {
	svc, orders, _, _ := newFixture(0)
	second := cinemaTicket()
	second.ID = 2
	second.Name = "Place cinéma - séance 3D"
	orders.tickets.tickets[2] = second
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, 7, 1, 3)
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, 7, 2, 3)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Len(t, orders.orders, 1, "refused order must not create a row")

	o, err := svc.CreateOrder(ctx, 7, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), o.TicketID)
}

func TestCreateOrderOutOfStockJoinsWaitlist(t *testing.T) {
	svc, orders, waitlist, _ := newFixture(0)
	orders.tickets.tickets[1].Stock = 2

	_, err := svc.CreateOrder(context.Background(), 7, 1, 3)
	assert.ErrorIs(t, err, ErrOutOfStock)
	require.Len(t, waitlist.entries, 1)
	assert.Equal(t, uint64(7), waitlist.entries[0].UserID)
	assert.Equal(t, uint32(3), waitlist.entries[0].Quantity)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderTicketMaxTightensBound(t *testing.T) {
	svc, orders, _, _ := newFixture(0)
	orders.tickets.tickets[1].MaxPerUser = 2

	_, err := svc.CreateOrder(context.Background(), 7, 1, 3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestMonthStartIsCalendarBoundary(t *testing.T) {
	svc, _, _, _ := newFixture(0)
	svc.now = func() time.Time {
		return time.Date(2025, 7, 23, 18, 30, 0, 0, time.FixedZone("CET", 3600))
	}
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), svc.monthStart())
}
