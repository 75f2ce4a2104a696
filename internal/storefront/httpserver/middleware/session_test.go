package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grindngainz15/fronted/internal/storefront/session"
)

type sessionTestClock struct {
	now time.Time
}

func (c *sessionTestClock) Now() time.Time {
	return c.now
}

func newSessionStoreForTest(t *testing.T, clock *sessionTestClock) *session.Manager {
	t.Helper()
	store, err := session.NewManager(session.Config{
		CookieName:  "test_session",
		HashKey:     []byte("12345678901234567890123456789012"),
		BlockKey:    []byte("abcdefghijklmnopqrstuvwxyzABCDEF"),
		IdleTimeout: 5 * time.Minute,
		Lifetime:    time.Hour,
		Now:         clock.Now,
	})
	if err != nil {
		t.Fatalf("session manager init: %v", err)
	}
	return store
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionMiddlewareLifecycle(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	var ids []string
	handler := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatalf("session missing in context")
		}
		ids = append(ids, sess.ID())
		if r.URL.Path == "/login" {
			sess.SignIn(session.Identity{Token: "tok", UserID: "u1", Name: "Asha"})
		}
		_, _ = w.Write([]byte("ok"))
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := findCookie(rec1.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie written before the body, got %v", rec1.Header().Values("Set-Cookie"))
	}

	clock.now = clock.now.Add(2 * time.Minute)
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if len(ids) != 2 || ids[1] != ids[0] {
		t.Fatalf("expected the session to persist across requests, got %v", ids)
	}

	req3 := httptest.NewRequest(http.MethodPost, "/login", nil)
	req3.AddCookie(findCookie(rec2.Result().Cookies(), "test_session"))
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)
	if ids[2] != ids[1] {
		t.Fatalf("sign-in should happen on the loaded session")
	}

	var seen session.Identity
	probe := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))
	req4 := httptest.NewRequest(http.MethodGet, "/", nil)
	req4.AddCookie(findCookie(rec3.Result().Cookies(), "test_session"))
	probe.ServeHTTP(httptest.NewRecorder(), req4)
	if seen.UserID != "u1" || !seen.Authenticated() {
		t.Fatalf("expected signed-in identity, got %+v", seen)
	}
}

func TestSessionMiddlewareResetsExpiredSession(t *testing.T) {
	clock := &sessionTestClock{now: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)}
	store := newSessionStoreForTest(t, clock)

	var last string
	handler := Session(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		last = sess.ID()
		w.WriteHeader(http.StatusNoContent)
	}))

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, httptest.NewRequest(http.MethodGet, "/", nil))
	first := last

	clock.now = clock.now.Add(10 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(findCookie(rec1.Result().Cookies(), "test_session"))
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)

	if last == first {
		t.Fatalf("expected a fresh session after idle timeout")
	}
	if rec2.Code != http.StatusNoContent {
		t.Fatalf("expected handler status to pass through, got %d", rec2.Code)
	}
}
