package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/platform/requestctx"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

type sessionContextKey string

const requestSessionKey sessionContextKey = "storefront.session"

// SessionStore abstracts the session manager for middleware integration.
type SessionStore interface {
	Load(*http.Request) (*session.Session, error)
	New() *session.Session
	Save(http.ResponseWriter, *session.Session) error
	Destroy(http.ResponseWriter)
}

// Session attaches the decoded session to the request context and writes it
// back as a cookie right before the response header goes out.
func Session(store SessionStore) func(http.Handler) http.Handler {
	if store == nil {
		panic("session store is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := requestctx.Logger(r.Context())
			sess, err := store.Load(r)
			if errors.Is(err, session.ErrExpired) {
				logger.Info("session expired: resetting")
				store.Destroy(w)
				sess = store.New()
			} else if err != nil || sess == nil {
				if err != nil {
					logger.Warn("session load failed", zap.Error(err))
				}
				sess = store.New()
			}

			ctx := context.WithValue(r.Context(), requestSessionKey, sess)
			sw := &sessionWriter{ResponseWriter: w, save: func() {
				if err := store.Save(w, sess); err != nil {
					logger.Error("session save failed", zap.Error(err))
				}
			}}

			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.flush()
		})
	}
}

// sessionWriter persists the session once, before the first header write,
// because cookies set after that point never reach the browser.
type sessionWriter struct {
	http.ResponseWriter
	save  func()
	saved bool
}

func (w *sessionWriter) flush() {
	if w.saved {
		return
	}
	w.saved = true
	w.save()
}

func (w *sessionWriter) WriteHeader(status int) {
	w.flush()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// SessionFromContext retrieves the session attached to this request.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(requestSessionKey).(*session.Session)
	return sess, ok && sess != nil
}

// IdentityFromContext returns the signed-in shopper, or the zero Identity.
func IdentityFromContext(ctx context.Context) session.Identity {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return session.Identity{}
	}
	return sess.Identity()
}

// UserID resolves the signed-in user for request logs.
func UserID(ctx context.Context) string {
	return IdentityFromContext(ctx).UserID
}
