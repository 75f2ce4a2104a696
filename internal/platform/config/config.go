package config

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile           = ".env"
	defaultAddr              = ":8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultRequestTimeout    = 30 * time.Second
	defaultBreakerFailures   = 5
	defaultBreakerCooldown   = 30 * time.Second
	defaultSessionCookie     = "onekart_session"
	defaultSessionIdle       = 2 * time.Hour
	defaultSessionLifetime   = 7 * 24 * time.Hour
	defaultCSRFCookie        = "onekart_csrf"
	defaultExchangeRateURL   = "https://api.exchangerate.host/latest?base=INR&symbols=USD"
	defaultUSDRate           = 0.012
	defaultReconcileTimeout  = 10 * time.Second
	defaultDraftTTL          = time.Hour
	defaultProductImageLimit = 100 * 1024
	defaultEnvironment       = "development"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Backend     BackendConfig
	Session     SessionConfig
	Currency    CurrencyConfig
	Checkout    CheckoutConfig
	Catalog     CatalogConfig
	Orders      OrdersConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// BackendConfig points at the REST backend every page talks to.
type BackendConfig struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// SessionConfig controls the signed session cookie and CSRF cookie.
type SessionConfig struct {
	CookieName     string
	HashKey        string
	BlockKey       string
	CookieSecure   bool
	IdleTimeout    time.Duration
	Lifetime       time.Duration
	CSRFCookieName string
}

// CurrencyConfig drives the INR/USD price toggle.
type CurrencyConfig struct {
	ExchangeRateURL string
	DefaultUSDRate  float64
}

// CheckoutConfig selects where cart snapshots wait between cart and checkout.
type CheckoutConfig struct {
	RedisAddr string
	DraftTTL  time.Duration
}

// CatalogConfig holds limits enforced before catalog uploads leave the browser session.
type CatalogConfig struct {
	ProductImageMaxBytes int64
}

// OrdersConfig tunes background reconciliation after cancel/return.
type OrdersConfig struct {
	ReconcileTimeout time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option mutates loader behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "APP_ENV", defaultEnvironment)),
		LogLevel:    stringWithDefault(lookup, "LOG_LEVEL", "info"),
		Server: ServerConfig{
			Addr:           stringWithDefault(lookup, "HTTP_ADDR", defaultAddr),
			ReadTimeout:    durationWithDefault(lookup, "HTTP_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:   durationWithDefault(lookup, "HTTP_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:    durationWithDefault(lookup, "HTTP_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout: durationWithDefault(lookup, "HTTP_REQUEST_TIMEOUT", defaultRequestTimeout),
		},
		Backend: BackendConfig{
			BaseURL:         strings.TrimRight(stringWithDefault(lookup, "BACKEND_BASE_URL", ""), "/"),
			Timeout:         durationWithDefault(lookup, "BACKEND_TIMEOUT", 0),
			BreakerFailures: intWithDefault(lookup, "BREAKER_FAILURES", defaultBreakerFailures),
			BreakerCooldown: durationWithDefault(lookup, "BREAKER_COOLDOWN", defaultBreakerCooldown),
		},
		Session: SessionConfig{
			CookieName:     stringWithDefault(lookup, "SESSION_COOKIE_NAME", defaultSessionCookie),
			HashKey:        stringWithDefault(lookup, "SESSION_HASH_KEY", ""),
			BlockKey:       stringWithDefault(lookup, "SESSION_BLOCK_KEY", ""),
			CookieSecure:   boolWithDefault(lookup, "COOKIE_SECURE", false),
			IdleTimeout:    durationWithDefault(lookup, "SESSION_IDLE_TIMEOUT", defaultSessionIdle),
			Lifetime:       durationWithDefault(lookup, "SESSION_LIFETIME", defaultSessionLifetime),
			CSRFCookieName: stringWithDefault(lookup, "CSRF_COOKIE_NAME", defaultCSRFCookie),
		},
		Currency: CurrencyConfig{
			ExchangeRateURL: stringWithDefault(lookup, "EXCHANGE_RATE_URL", defaultExchangeRateURL),
			DefaultUSDRate:  floatWithDefault(lookup, "DEFAULT_USD_RATE", defaultUSDRate),
		},
		Checkout: CheckoutConfig{
			RedisAddr: stringWithDefault(lookup, "REDIS_ADDR", ""),
			DraftTTL:  durationWithDefault(lookup, "CHECKOUT_DRAFT_TTL", defaultDraftTTL),
		},
		Catalog: CatalogConfig{
			ProductImageMaxBytes: int64(intWithDefault(lookup, "PRODUCT_IMAGE_MAX_BYTES", defaultProductImageLimit)),
		},
		Orders: OrdersConfig{
			ReconcileTimeout: durationWithDefault(lookup, "RECONCILE_TIMEOUT", defaultReconcileTimeout),
		},
	}

	if cfg.Environment == defaultEnvironment && cfg.Session.HashKey == "" {
		cfg.Session.HashKey = "development-only-session-hash-key-0123456789"
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs with local defaults.
func (c Config) IsDevelopment() bool {
	return c.Environment == defaultEnvironment
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		missing = append(missing, "Server.Addr")
	}
	if cfg.Backend.BaseURL == "" {
		missing = append(missing, "Backend.BaseURL")
	} else if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "Backend.BaseURL")
	}
	if cfg.Backend.BreakerFailures <= 0 {
		missing = append(missing, "Backend.BreakerFailures")
	}
	if cfg.Backend.Timeout < 0 {
		missing = append(missing, "Backend.Timeout")
	}
	if len(cfg.Session.HashKey) < 32 {
		missing = append(missing, "Session.HashKey")
	}
	switch len(cfg.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		missing = append(missing, "Session.BlockKey")
	}
	if cfg.Currency.DefaultUSDRate <= 0 {
		missing = append(missing, "Currency.DefaultUSDRate")
	}
	if cfg.Catalog.ProductImageMaxBytes <= 0 {
		missing = append(missing, "Catalog.ProductImageMaxBytes")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
