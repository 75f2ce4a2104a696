package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerMiddlewareLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	handler := InjectLoggerMiddleware(logger)(RequestLoggerMiddleware(func(context.Context) string { return "user-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}),
	))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	require.Equal(t, "user-1", entries[0].ContextMap()["user_id"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestRecoveryMiddlewareRendersError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "internal_server_error")
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestSanitizeStringStripsControlCharacters(t *testing.T) {
	require.Equal(t, "GETx", SanitizeMethod("GET\nx"))
	require.Equal(t, "/", SanitizeRoute(""))
	require.Len(t, SanitizeUserID(string(make([]byte, 100))), 0)
}
