package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mailroom/internal/adapters/http/middleware"
)

// newTestServer builds the full middleware stack over the test globals.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	d, _ := setupTestDeps(t)
	return NewMux(d, Options{CSRFKey: bytes.Repeat([]byte{1}, 32), LoginRate: 3})
}

func TestNewMux_JSONLoginThenDashboard(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"me@x.com","password":"right"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", rec.Code, rec.Body.String())
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("no session cookie")
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), `id="send-form"`) {
		t.Error("session cookie should unlock the dashboard")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}
}

func TestNewMux_FormPostRequiresCSRF(t *testing.T) {
	h := newTestServer(t)
	req := httptest.NewRequest("POST", "/login", strings.NewReader("email=me@x.com&password=right"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without CSRF token", rec.Code)
	}
}

func TestNewMux_LoginRateLimited(t *testing.T) {
	h := newTestServer(t)
	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("POST", "/login", strings.NewReader(`{"email":"me@x.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("4th attempt status = %d, want 429", last)
	}
}

func TestNewMux_StaticAndHealth(t *testing.T) {
	h := newTestServer(t)
	for path, want := range map[string]int{
		"/static/app.js":    http.StatusOK,
		"/static/style.css": http.StatusOK,
		"/healthz":          http.StatusOK,
		"/nope":             http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != want {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, want)
		}
	}
}
