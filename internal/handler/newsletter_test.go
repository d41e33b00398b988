package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amicale/member-portal/internal/response"
	"github.com/amicale/member-portal/internal/service"
)

type mockNewsletter struct {
	err  error
	got  string
	hits int
}

func (m *mockNewsletter) Subscribe(ctx context.Context, email string) error {
	m.hits++
	m.got = email
	return m.err
}

func newSubscribeCtx(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSubscribeMissingEmail(t *testing.T) {
	m := &mockNewsletter{err: service.ErrEmailRequired}
	h := NewNewsletterHandler(m)

	c, rec := newSubscribeCtx(t, `{"email":""}`)
	require.NoError(t, h.Subscribe(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, response.CodeInvalidInput, env.Code)
	assert.Equal(t, "Email requis", env.Error)
}

func TestSubscribeMalformedEmail(t *testing.T) {
	m := &mockNewsletter{err: service.ErrEmailInvalid}
	h := NewNewsletterHandler(m)

	c, rec := newSubscribeCtx(t, `{"email":"not-an-address"}`)
	require.NoError(t, h.Subscribe(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeInvalidInput, decodeEnvelope(t, rec).Code)
}

func TestSubscribeSuccess(t *testing.T) {
	m := &mockNewsletter{}
	h := NewNewsletterHandler(m)

	c, rec := newSubscribeCtx(t, `{"email":"membre@example.org"}`)
	require.NoError(t, h.Subscribe(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, "membre@example.org", m.got)
}
