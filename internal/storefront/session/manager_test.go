package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func newTestManager(t *testing.T) (*Manager, *fixedClock) {
	t.Helper()

	clock := &fixedClock{current: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	mgr, err := NewManager(Config{
		CookieName:  "test_session",
		HashKey:     []byte("12345678901234567890123456789012"),
		BlockKey:    []byte("abcdefghijklmnopqrstuv0123456789"),
		IdleTimeout: 10 * time.Minute,
		Lifetime:    2 * time.Hour,
		Now:         clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return mgr, clock
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func roundTrip(t *testing.T, mgr *Manager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie to be set")
	}
	return cookie
}

func TestManager_SignInPersistsIdentity(t *testing.T) {
	mgr, clock := newTestManager(t)

	sess, err := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if sess.Identity().Authenticated() {
		t.Fatalf("new session must be anonymous")
	}
	anonymousID := sess.ID()

	sess.SignIn(Identity{Token: "opaque", UserID: "u1", Name: "Asha", Role: "admin", Mobile: "98765"})
	if sess.ID() == anonymousID {
		t.Fatalf("expected session id rotation on sign in")
	}
	sess.SetDraftID("draft-1")
	sess.AddFlash(FlashSuccess, "Welcome back")
	cookie := roundTrip(t, mgr, sess)

	clock.current = clock.current.Add(5 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := mgr.Load(req)
	if err != nil {
		t.Fatalf("Load existing error: %v", err)
	}
	id := loaded.Identity()
	if id.UserID != "u1" || id.Mobile != "98765" || !id.IsAdmin() {
		t.Fatalf("identity not persisted: %+v", id)
	}
	if loaded.DraftID() != "draft-1" {
		t.Fatalf("expected draft id to persist")
	}
	flashes := loaded.PopFlashes()
	if len(flashes) != 1 || flashes[0].Message != "Welcome back" {
		t.Fatalf("unexpected flashes %+v", flashes)
	}
	if loaded.PopFlashes() != nil {
		t.Fatalf("flashes must be one-shot")
	}
}

func TestManager_TokenExpiryShortensSession(t *testing.T) {
	mgr, clock := newTestManager(t)
	sess := mgr.New()

	exp := clock.current.Add(30 * time.Minute)
	sess.SignIn(Identity{Token: signedToken(t, exp), UserID: "u1"})
	if !sess.ExpiresAt().Equal(exp.Truncate(time.Second)) {
		t.Fatalf("expected expiry %v, got %v", exp, sess.ExpiresAt())
	}
	cookie := roundTrip(t, mgr, sess)

	// Stay inside the idle window so only the token exp can end the session.
	for i := 0; i < 3; i++ {
		clock.current = clock.current.Add(9 * time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		loaded, err := mgr.Load(req)
		if err != nil {
			t.Fatalf("Load %d error: %v", i, err)
		}
		cookie = roundTrip(t, mgr, loaded)
	}

	clock.current = clock.current.Add(9 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if _, err := mgr.Load(req); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired after token exp, got %v", err)
	}
}

func TestManager_IdleTimeout(t *testing.T) {
	mgr, clock := newTestManager(t)
	sess, err := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cookie := roundTrip(t, mgr, sess)

	clock.current = clock.current.Add(20 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if _, err := mgr.Load(req); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	mgr, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "garbage"})
	sess, err := mgr.Load(req)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if sess.Identity().Authenticated() {
		t.Fatalf("expected anonymous session")
	}
}

func TestManager_Destroy(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess, _ := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	sess.Destroy()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected session cookie cleared")
	}
}

func TestTokenExpiryIgnoresOpaqueTokens(t *testing.T) {
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Fatalf("opaque token must not yield an expiry")
	}
	if _, ok := TokenExpiry(""); ok {
		t.Fatalf("empty token must not yield an expiry")
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
