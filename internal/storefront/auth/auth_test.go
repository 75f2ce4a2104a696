package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

func newService(t *testing.T, handler http.HandlerFunc) *HTTPService {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := backend.New(backend.Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)
	return NewHTTPService(client)
}

func TestLoginMapsIdentity(t *testing.T) {
	t.Parallel()

	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"success":false,"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"token":"jwt","user":{"_id":"u1","name":"Asha","role":"Admin","email":"asha@x.test","mobile":"98765"}}}`)
	})

	id, err := svc.Login(context.Background(), Credentials{Email: " asha@x.test ", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, session.Identity{Token: "jwt", UserID: "u1", Name: "Asha", Role: "admin", Email: "asha@x.test", Mobile: "98765"}, id)
	require.True(t, id.IsAdmin())

	_, err = svc.Login(context.Background(), Credentials{Email: "asha@x.test", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), Credentials{Email: "asha@x.test"})
	require.Equal(t, "Enter password", backend.UserMessage(err, ""))
}

func TestRegisterPostsNormalizedFields(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]string, 1)
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/create", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	err := svc.Register(context.Background(), Registration{Name: " Asha ", Email: "Asha@X.test", Password: "pw", Mobile: "98765"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "Asha", "email": "asha@x.test", "password": "pw", "mobile": "98765"}, <-bodies)

	err = svc.Register(context.Background(), Registration{Name: "A", Email: "not-an-email", Password: "pw", Mobile: "1"})
	require.Equal(t, "Enter valid email", backend.UserMessage(err, ""))
}

func TestStaticService(t *testing.T) {
	t.Parallel()

	svc := NewStaticService()
	ctx := context.Background()

	id, err := svc.Login(ctx, Credentials{Email: "ADMIN@onekart.test", Password: "password"})
	require.NoError(t, err)
	require.True(t, id.IsAdmin())

	_, err = svc.Login(ctx, Credentials{Email: "admin@onekart.test", Password: "nope"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	reg := Registration{Name: "Ravi", Email: "ravi@onekart.test", Password: "pw", Mobile: "1"}
	require.NoError(t, svc.Register(ctx, reg))
	require.Equal(t, "User already exists", backend.UserMessage(svc.Register(ctx, reg), ""))

	id, err = svc.Login(ctx, Credentials{Email: "ravi@onekart.test", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, "u-new-1", id.UserID)
}
