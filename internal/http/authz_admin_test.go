package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"clothsy/internal/server"
)

// Admin API requires a bearer token.
func TestAdminAPIRequiresToken(t *testing.T) {
	app := newTestApp(t, server.Options{})

	resp, _ := app.do(t, "GET", "/api/v1/admin/orders", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous expected 401, got %d", resp.StatusCode)
	}

	resp, _ = app.do(t, "GET", "/api/v1/admin/orders", nil, "garbage")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token expected 401, got %d", resp.StatusCode)
	}

	resp, body := app.do(t, "GET", "/api/v1/admin/orders", nil, app.token(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin expected 200, got %d: %s", resp.StatusCode, body)
	}
}

func TestAPILogin(t *testing.T) {
	app := newTestApp(t, server.Options{})

	resp, _ := app.do(t, "POST", "/api/v1/admin/login", map[string]string{"username": adminUser, "password": "wrong-password"}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password expected 401, got %d", resp.StatusCode)
	}

	resp, body := app.do(t, "POST", "/api/v1/admin/login", map[string]string{"username": adminUser, "password": adminPass}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		t.Fatalf("token missing: %s", body)
	}
	if out.ExpiresIn <= 0 {
		t.Fatalf("expiresIn = %d", out.ExpiresIn)
	}
	resp, _ = app.do(t, "GET", "/api/v1/admin/stats", nil, out.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token from login rejected: %d", resp.StatusCode)
	}
}

// /admin pages redirect anonymous visitors to the login form.
func TestAdminPagesRedirect(t *testing.T) {
	app := newTestApp(t, server.Options{})
	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

var csrfField = regexp.MustCompile(`name="csrf" value="([^"]+)"`)

// Full browser flow: fetch the form, post it with the CSRF token, then use the
// session cookie on the dashboard.
func TestCookieLoginFlow(t *testing.T) {
	app := newTestApp(t, server.Options{})

	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	m := csrfField.FindSubmatch(page)
	if m == nil {
		t.Fatalf("csrf token missing from login form")
	}
	var csrfCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			csrfCookie = c
		}
	}
	if csrfCookie == nil {
		t.Fatalf("csrf cookie not set")
	}

	form := url.Values{"csrf": {string(m[1])}, "username": {adminUser}, "password": {adminPass}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(csrfCookie)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/admin" {
		t.Fatalf("login expected redirect to /admin, got %d", resp.StatusCode)
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "admin_token" {
			session = c
		}
	}
	if session == nil || !session.HttpOnly {
		t.Fatalf("expected HttpOnly admin_token cookie, got %+v", session)
	}

	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(session)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Log out (admin1)") {
		t.Fatalf("dashboard does not show the admin: %s", body)
	}
}

// Posting the login form without the CSRF token is refused.
func TestLoginRequiresCSRF(t *testing.T) {
	app := newTestApp(t, server.Options{})
	form := url.Values{"username": {adminUser}, "password": {adminPass}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without csrf, got %d", resp.StatusCode)
	}
}

// The order status form on /admin/orders moves the order along.
func TestAdminOrderStatusForm(t *testing.T) {
	app := newTestApp(t, server.Options{})
	resp, body := app.do(t, "POST", "/api/v1/orders", checkout(), "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: %d %s", resp.StatusCode, body)
	}
	var placed struct{ ID string }
	_ = json.Unmarshal(body, &placed)

	session := &http.Cookie{Name: "admin_token", Value: app.token(t)}
	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(session)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	m := csrfField.FindSubmatch(page)
	if m == nil {
		t.Fatalf("status form missing csrf: %s", page)
	}
	var csrfCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			csrfCookie = c
		}
	}

	form := url.Values{"csrf": {string(m[1])}, "status": {"confirmed"}}
	req = httptest.NewRequest("POST", "/admin/orders/"+placed.ID+"/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(session)
	if csrfCookie != nil {
		req.AddCookie(csrfCookie)
	}
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after update, got %d", resp.StatusCode)
	}
	o, _ := app.Store.Order(placed.ID)
	if o.Status != "confirmed" {
		t.Fatalf("status = %s", o.Status)
	}
}
