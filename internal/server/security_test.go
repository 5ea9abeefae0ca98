package server_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeshop/internal/server"
)

func TestCSRFRequiredOnPost(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)
	cl.login("alice")
	cl.get("/cart/add/washer/washer-w7/")

	resp := cl.post("/cart/change-qty/washer/washer-w7/", url.Values{"qty": {"5"}, "csrf": {"forged"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, ta.logs.String(), "csrf.fail")

	var qty int
	require.NoError(t, ta.store.DB().Get(&qty, `SELECT qty FROM cart_items`))
	assert.Equal(t, 1, qty)
}

func TestLoginFailureAndThrottle(t *testing.T) {
	ta := newTestApp(t, server.Limits{Login: 2})
	cl := ta.client(t)

	bad := url.Values{"username": {"alice"}, "password": {"wrong-Passw0rd!"}}
	resp := cl.post("/login/", bad)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Invalid username or password")
	assert.Empty(t, cl.cookies["sid"], "failed login must not leave a usable session")

	resp = cl.post("/login/", bad)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = cl.post("/login/", url.Values{"username": {"alice"}, "password": {"Passw0rd!"}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	logs := ta.logs.String()
	assert.Contains(t, logs, "auth.login.fail")
	assert.Contains(t, logs, "rate.login.hit")
	assert.NotContains(t, logs, "wrong-Passw0rd!")
}

func TestLoginRotatesSession(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)
	cl.cookies["sid"] = "chosen-by-attacker"
	cl.login("bob")

	assert.NotEqual(t, "chosen-by-attacker", cl.cookies["sid"])
	resp := cl.get("/profile/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Bob Jones")

	resp = cl.post("/logout/", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp = cl.get("/profile/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestRegistration(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)

	form := url.Values{
		"username":         {"carol"},
		"email":            {"carol@example.com"},
		"first_name":       {"Carol"},
		"last_name":        {"White"},
		"password":         {"S3cure!pass"},
		"confirm_password": {"S3cure!pass"},
		"phone":            {"+1 555 0199"},
		"address":          {"3 Elm St"},
	}
	resp := cl.post("/registration/", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.NotContains(t, form, "csrf")

	sent := ta.outbox.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "carol@example.com", sent[0].To)

	// logged in right away, with a customer profile and an open cart
	resp = cl.get("/profile/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Carol White")

	resp = cl.get("/cart/add/dishwasher/dishwasher-mini/")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/cart/", resp.Header.Get("Location"))

	// same username again from a new browser
	other := ta.client(t)
	form.Set("email", "carol2@example.com")
	resp = other.post("/registration/", form)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	b := body(t, resp)
	assert.Contains(t, b, "This username is taken")
	assert.NotContains(t, b, "S3cure!pass")
	assert.Len(t, ta.outbox.sent(), 1)

	var n int
	require.NoError(t, ta.store.DB().Get(&n, `SELECT COUNT(*) FROM users WHERE username = 'carol'`))
	assert.Equal(t, 1, n)
}

func TestRegistrationValidation(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)

	resp := cl.post("/registration/", url.Values{
		"username":         {"x"},
		"email":            {"not-an-email"},
		"password":         {"short"},
		"confirm_password": {"other"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	b := body(t, resp)
	assert.Contains(t, b, "Enter a valid email address")
	assert.Contains(t, b, "Passwords do not match")
	assert.Contains(t, b, "Address is required")

	var n int
	require.NoError(t, ta.store.DB().Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 3, n)
	assert.Empty(t, ta.outbox.sent())
}

func TestMediaTraversalBlocked(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)

	for _, p := range []string{
		"/media/../../go.mod",
		"/media/%2e%2e/%2e%2e/go.mod",
		"/media/products/..%2f..%2f..%2fgo.mod",
	} {
		resp := cl.get(p)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
		assert.NotContains(t, body(t, resp), "module homeshop", p)
	}
}

func TestBodySizeLimit(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)
	tok := cl.csrf()

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest(http.MethodPost, "/login/", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	resp, err := ta.app.Test(req, -1)
	// fasthttp may drop the connection instead of answering
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestSearchThrottle(t *testing.T) {
	ta := newTestApp(t, server.Limits{Search: 2})
	cl := ta.client(t)

	for i := 0; i < 2; i++ {
		resp := cl.get("/search?q=fridge")
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i)
	}
	resp := cl.get("/search?q=fridge")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestErrorsDoNotLeakInternals(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)
	_, err := ta.store.DB().Exec(`DROP TABLE dishwashers`)
	require.NoError(t, err)

	resp := cl.get("/")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	b := body(t, resp)
	assert.Contains(t, b, "Something went wrong")
	assert.NotContains(t, b, "no such table")
	assert.Contains(t, ta.logs.String(), "server.error")
}

func TestRegistrationFormEscapesInput(t *testing.T) {
	ta := newTestApp(t, server.Limits{})
	cl := ta.client(t)

	resp := cl.post("/registration/", url.Values{
		"username":   {"mallory"},
		"first_name": {"<script>alert(1)</script>"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	b := body(t, resp)
	assert.NotContains(t, b, "<script>alert(1)</script>")
	assert.Contains(t, b, "&lt;script&gt;")
}

func TestAccessLog(t *testing.T) {
	access := &safeBuffer{}
	ta := newTestAppWith(t, server.Options{AccessLog: access})
	cl := ta.client(t)

	cl.get("/contacts/")
	assert.Contains(t, access.String(), "/contacts/")
}
