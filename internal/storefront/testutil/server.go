package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	"github.com/grindngainz15/fronted/internal/storefront/httpserver"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/users"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithCartService wires a custom cart service implementation.
func WithCartService(service cart.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Cart = service
	}
}

// WithCheckoutService wires a custom checkout service implementation.
func WithCheckoutService(service checkout.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Checkout = service
	}
}

// WithOrdersService wires a custom orders service implementation.
func WithOrdersService(service orders.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Orders = service
	}
}

// WithProfileService wires a custom profile service implementation.
func WithProfileService(service profile.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Profile = service
	}
}

// WithCatalogService wires a custom catalog service implementation.
func WithCatalogService(service catalog.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Catalog = service
	}
}

// WithUsersService wires a custom users service implementation.
func WithUsersService(service users.Service) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Users = service
	}
}

// WithDraftStore overrides the checkout draft store.
func WithDraftStore(store checkout.DraftStore) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.UI.Drafts = store
	}
}

// NewServer constructs an httptest server running the storefront HTTP stack
// over in-memory services.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	sessions, err := session.NewManager(session.Config{
		CookieName:  "onekart_session",
		HashKey:     []byte("0123456789abcdef0123456789abcdef"),
		BlockKey:    []byte("fedcba9876543210fedcba9876543210"),
		IdleTimeout: time.Hour,
		Lifetime:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	logger := zaptest.NewLogger(t)
	cfg := httpserver.Config{
		Address:     ":0",
		Environment: "test",
		Sessions:    sessions,
		Logger:      logger,
	}
	// Order reconciliation logs from goroutines that can outlive the test.
	cfg.UI.Logger = zap.NewNop()

	for _, opt := range opts {
		opt(&cfg)
	}

	srv := httpserver.New(cfg)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
