package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/platform/requestctx"
)

// DefaultLoginPath is where signed-out shoppers are sent.
const DefaultLoginPath = "/login"

// RequireAuth sends anonymous requests to the login page, remembering where
// they were headed.
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).Authenticated() {
				redirectToLogin(w, r, loginWithNext(loginPath, r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Unauthorized is the single answer to a backend 401: the session is cleared
// and the browser is sent to the login page. htmx requests get HX-Redirect.
func Unauthorized(w http.ResponseWriter, r *http.Request, loginPath string) {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	requestctx.Logger(r.Context()).Info("backend rejected session token",
		zap.String("path", r.URL.Path),
	)
	if sess, ok := SessionFromContext(r.Context()); ok {
		sess.Destroy()
	}
	redirectToLogin(w, r, loginPath)
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, target string) {
	if HTMXInfoFromContext(r.Context()).IsHTMX {
		w.Header().Set("HX-Redirect", target)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func loginWithNext(loginPath string, r *http.Request) string {
	if r.Method != http.MethodGet {
		return loginPath
	}
	next := r.URL.RequestURI()
	if next == "" || next == "/" {
		return loginPath
	}
	u, err := url.Parse(loginPath)
	if err != nil {
		return loginPath
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

// SafeNext accepts only same-site relative paths as post-login targets.
func SafeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
