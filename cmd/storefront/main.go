package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/platform/config"
	"github.com/grindngainz15/fronted/internal/platform/observability"
	"github.com/grindngainz15/fronted/internal/storefront/auth"
	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	"github.com/grindngainz15/fronted/internal/storefront/httpserver"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/httpserver/ui"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/users"
)

const quickBuyTTL = 2 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("storefront").With(zap.String("env", cfg.Environment))

	client, err := backend.New(backend.Config{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         cfg.Backend.Timeout,
		BreakerFailures: cfg.Backend.BreakerFailures,
		BreakerCooldown: cfg.Backend.BreakerCooldown,
		Logger:          logger.Named("backend"),
	})
	if err != nil {
		logger.Fatal("failed to build backend client", zap.Error(err))
	}

	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      []byte(cfg.Session.HashKey),
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.CookieSecure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		Lifetime:     cfg.Session.Lifetime,
	})
	if err != nil {
		logger.Fatal("failed to build session manager", zap.Error(err))
	}

	rates, err := catalog.NewRateService(catalog.RateConfig{
		URL:      cfg.Currency.ExchangeRateURL,
		Fallback: cfg.Currency.DefaultUSDRate,
		Logger:   logger.Named("rates"),
	})
	if err != nil {
		logger.Fatal("failed to build exchange rate client", zap.Error(err))
	}

	drafts, closeDrafts := draftStore(cfg, logger)
	defer closeDrafts()

	ordersSvc := orders.NewHTTPService(client)
	tracker := orders.NewTracker(ordersSvc, cfg.Orders.ReconcileTimeout, logger.Named("orders"))

	srv := httpserver.New(httpserver.Config{
		Address:        cfg.Server.Addr,
		Environment:    cfg.Environment,
		Sessions:       sessions,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Logger:         logger,
		CSRF: custommw.CSRFConfig{
			CookieName: cfg.Session.CSRFCookieName,
			Secure:     cfg.Session.CookieSecure,
		},
		UI: ui.Dependencies{
			Auth:          auth.NewHTTPService(client),
			Cart:          cart.NewHTTPService(client),
			Checkout:      checkout.NewHTTPService(client),
			Drafts:        drafts,
			Orders:        ordersSvc,
			Tracker:       tracker,
			Profile:       profile.NewHTTPService(client),
			Catalog:       catalog.NewHTTPService(client, cfg.Catalog.ProductImageMaxBytes),
			Users:         users.NewHTTPService(client),
			Rates:         rates,
			QuickBuy:      cart.NewAggregate(quickBuyTTL),
			ImageMaxBytes: cfg.Catalog.ProductImageMaxBytes,
			Logger:        logger,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverLogger := logger.Named("http").With(zap.String("addr", srv.Addr))
	go func() {
		serverLogger.Info("storefront listening", zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	tracker.Wait()
}

// draftStore keeps checkout drafts in Redis when REDIS_ADDR is set, otherwise in memory.
func draftStore(cfg config.Config, logger *zap.Logger) (checkout.DraftStore, func()) {
	if cfg.Checkout.RedisAddr == "" {
		if !cfg.IsDevelopment() {
			logger.Warn("REDIS_ADDR not set; checkout drafts are kept in process memory")
		}
		return checkout.NewMemoryDraftStore(cfg.Checkout.DraftTTL), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Checkout.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.String("addr", cfg.Checkout.RedisAddr), zap.Error(err))
	}
	return checkout.NewRedisDraftStore(rdb, cfg.Checkout.DraftTTL), func() {
		_ = rdb.Close()
	}
}
