package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amicale/member-portal/internal/model"
)

func member() *Session { return &Session{UserID: 7, Role: model.RoleMember} }
func admin() *Session  { return &Session{UserID: 1, Role: model.RoleAdmin} }

func TestDecideAnonymous(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		proceed  bool
		redirect string
	}{
		{"home is public", "/", true, ""},
		{"login form is public", "/auth/login", true, ""},
		{"blog is public", "/blog", true, ""},
		{"dashboard redirects home", "/dashboard/anything", false, "/?next=%2Fdashboard%2Fanything"},
		{"admin redirects home", "/admin/tickets", false, "/?next=%2Fadmin%2Ftickets"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Decide(nil, c.path)
			assert.Equal(t, c.proceed, d.Proceed)
			assert.Equal(t, c.redirect, d.Redirect)
		})
	}
}

func TestDecideMember(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		proceed  bool
		redirect string
	}{
		{"auth page bounces home", "/auth/login", false, "/"},
		{"register page bounces home", "/auth/register", false, "/"},
		{"admin requires admin role", "/admin/x", false, "/"},
		{"root goes to dashboard", "/", false, "/dashboard"},
		{"dashboard proceeds", "/dashboard/orders", true, ""},
		{"blog proceeds", "/blog", true, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Decide(member(), c.path)
			assert.Equal(t, c.proceed, d.Proceed)
			assert.Equal(t, c.redirect, d.Redirect)
		})
	}
}

func TestDecideAdmin(t *testing.T) {
	d := Decide(admin(), "/admin/tickets")
	assert.True(t, d.Proceed)

	// admins still get bounced off auth forms and the root
	assert.Equal(t, "/", Decide(admin(), "/auth/login").Redirect)
	assert.Equal(t, "/dashboard", Decide(admin(), "/").Redirect)
}

// Decide must be stateless: the same inputs give the same answer and a
// changed session flips the decision immediately.
func TestDecideIsStateless(t *testing.T) {
	first := Decide(member(), "/dashboard/orders")
	assert.True(t, first.Proceed)

	loggedOut := Decide(nil, "/dashboard/orders")
	assert.False(t, loggedOut.Proceed)

	again := Decide(member(), "/dashboard/orders")
	assert.Equal(t, first, again)
}
