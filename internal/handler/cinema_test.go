package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/response"
	"github.com/amicale/member-portal/internal/service"
)

// mockCinema scripts the service layer per test case.
type mockCinema struct {
	offerings []*model.Ticket
	quota     service.QuotaResult
	quotaErr  error
	order     *model.Order
	orderErr  error

	gotUserID   uint64
	gotTicketID uint64
	gotQty      int
}

func (m *mockCinema) ListOfferings(ctx context.Context) ([]*model.Ticket, error) {
	return m.offerings, nil
}

func (m *mockCinema) DefaultOffering(ctx context.Context) (*model.Ticket, error) {
	if len(m.offerings) == 0 {
		return nil, service.ErrTicketNotFound
	}
	return m.offerings[0], nil
}

func (m *mockCinema) CheckQuota(ctx context.Context, userID, ticketID uint64, qty int) (service.QuotaResult, error) {
	m.gotUserID, m.gotTicketID, m.gotQty = userID, ticketID, qty
	return m.quota, m.quotaErr
}

func (m *mockCinema) CreateOrder(ctx context.Context, userID, ticketID uint64, qty int) (*model.Order, error) {
	m.gotUserID, m.gotTicketID, m.gotQty = userID, ticketID, qty
	return m.order, m.orderErr
}

func (m *mockCinema) ListOrders(ctx context.Context, userID uint64) ([]*model.Order, error) {
	m.gotUserID = userID
	if m.order == nil {
		return nil, nil
	}
	return []*model.Order{m.order}, nil
}

func newCinemaCtx(t *testing.T, method, target, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
		c.Set("role", model.RoleMember)
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCheckQuotaRefusedOverCap(t *testing.T) {
	m := &mockCinema{
		offerings: []*model.Ticket{{ID: 7, Category: model.CategoryCinema, MaxPerUser: 5}},
		quota:     service.QuotaResult{Allowed: false, Remaining: 1, Reason: "QUOTA_EXCEEDED"},
	}
	h := NewCinemaHandler(m)

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/quota?ticket_id=7&quantity=2", "", 42)
	require.NoError(t, h.CheckQuota(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, false, data["allowed"])
	assert.Equal(t, float64(1), data["remaining"])
	assert.Equal(t, "QUOTA_EXCEEDED", data["reason"])
	assert.Equal(t, uint64(42), m.gotUserID)
	assert.Equal(t, uint64(7), m.gotTicketID)
	assert.Equal(t, 2, m.gotQty)
}

func TestCheckQuotaDefaultsToFirstOffering(t *testing.T) {
	m := &mockCinema{
		offerings: []*model.Ticket{{ID: 9, Category: model.CategoryCinema}},
		quota:     service.QuotaResult{Allowed: true, Remaining: 5},
	}
	h := NewCinemaHandler(m)

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/quota?quantity=1", "", 42)
	require.NoError(t, h.CheckQuota(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(9), m.gotTicketID)
}

func TestCheckQuotaRejectsNonNumericQuantity(t *testing.T) {
	h := NewCinemaHandler(&mockCinema{})

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/quota?ticket_id=1&quantity=two", "", 42)
	require.NoError(t, h.CheckQuota(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, response.CodeInvalidQuantity, env.Code)
}

func TestCheckQuotaInvalidQuantityFromService(t *testing.T) {
	m := &mockCinema{
		offerings: []*model.Ticket{{ID: 1, Category: model.CategoryCinema}},
		quotaErr:  service.ErrInvalidQuantity,
	}
	h := NewCinemaHandler(m)

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/quota?ticket_id=1&quantity=99", "", 42)
	require.NoError(t, h.CheckQuota(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidQuantity, decodeEnvelope(t, rec).Code)
}

func TestCheckQuotaUnknownOffering(t *testing.T) {
	m := &mockCinema{
		offerings: []*model.Ticket{{ID: 1, Category: model.CategoryCinema}},
		quotaErr:  service.ErrTicketNotFound,
	}
	h := NewCinemaHandler(m)

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/quota?ticket_id=404&quantity=1", "", 42)
	require.NoError(t, h.CheckQuota(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeCinemaNotFound, decodeEnvelope(t, rec).Code)
}

func TestCheckQuotaRequiresAuth(t *testing.T) {
	h := NewCinemaHandler(&mockCinema{})

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/quota?ticket_id=1&quantity=1", "", 0)
	require.NoError(t, h.CheckQuota(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeUnauthorized, decodeEnvelope(t, rec).Code)
}

func TestCreateOrderSuccess(t *testing.T) {
	m := &mockCinema{
		order: &model.Order{ID: 11, UserID: 42, TicketID: 7, Quantity: 3, TotalPriceCents: 1950, Status: model.OrderPending},
	}
	h := NewCinemaHandler(m)

	c, rec := newCinemaCtx(t, http.MethodPost, "/api/cinema/orders", `{"cinema_id":7,"quantity":3}`, 42)
	require.NoError(t, h.CreateOrder(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, uint64(42), m.gotUserID)
	assert.Equal(t, uint64(7), m.gotTicketID)
	assert.Equal(t, 3, m.gotQty)
}

func TestCreateOrderErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		svcErr   error
		wantCode string
		wantHTTP int
	}{
		{"quota exceeded", service.ErrQuotaExceeded, response.CodeQuotaExceeded, http.StatusConflict},
		{"out of stock", service.ErrOutOfStock, response.CodeOutOfStock, http.StatusConflict},
		{"unknown offering", service.ErrTicketNotFound, response.CodeCinemaNotFound, http.StatusNotFound},
		{"invalid quantity", service.ErrInvalidQuantity, response.CodeInvalidQuantity, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewCinemaHandler(&mockCinema{orderErr: tc.svcErr})
			c, rec := newCinemaCtx(t, http.MethodPost, "/api/cinema/orders", `{"cinema_id":7,"quantity":2}`, 42)
			require.NoError(t, h.CreateOrder(c))

			assert.Equal(t, tc.wantHTTP, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantCode, env.Code)
		})
	}
}

func TestCreateOrderMissingCinemaID(t *testing.T) {
	h := NewCinemaHandler(&mockCinema{})

	c, rec := newCinemaCtx(t, http.MethodPost, "/api/cinema/orders", `{"quantity":2}`, 42)
	require.NoError(t, h.CreateOrder(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidInput, decodeEnvelope(t, rec).Code)
}

func TestListOrdersScopedToCaller(t *testing.T) {
	m := &mockCinema{order: &model.Order{ID: 3, UserID: 42}}
	h := NewCinemaHandler(m)

	c, rec := newCinemaCtx(t, http.MethodGet, "/api/cinema/orders", "", 42)
	require.NoError(t, h.ListOrders(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), m.gotUserID)
}
