package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
)

const (
	// DefaultUSDRate is used whenever the live INR→USD rate cannot be read.
	DefaultUSDRate   = 0.012
	defaultRateTTL   = time.Hour
	rateFetchTimeout = 3 * time.Second
)

// RateSource returns the current INR→USD rate. Implementations never fail; they
// fall back to a default instead.
type RateSource interface {
	USDRate(ctx context.Context) float64
}

// FixedRate is a RateSource that always reports the same value.
type FixedRate float64

// USDRate implements RateSource.
func (r FixedRate) USDRate(context.Context) float64 { return float64(r) }

// RateService reads the exchange rate from an exchangerate.host style endpoint and
// keeps a successful value for an hour.
type RateService struct {
	client   *backend.Client
	path     string
	query    url.Values
	fallback float64
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	rate    float64
	fetched time.Time
}

// RateConfig configures a RateService.
type RateConfig struct {
	URL        string
	Fallback   float64
	TTL        time.Duration
	HTTPClient backend.HTTPClient
	Logger     *zap.Logger
}

// NewRateService parses the endpoint and builds a dedicated client for it.
func NewRateService(cfg RateConfig) (*RateService, error) {
	parsed, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog: invalid exchange rate url %q", cfg.URL)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	client, err := backend.New(backend.Config{
		BaseURL:    base.String(),
		HTTPClient: cfg.HTTPClient,
		Timeout:    rateFetchTimeout,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	fallback := cfg.Fallback
	if fallback <= 0 {
		fallback = DefaultUSDRate
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultRateTTL
	}
	return &RateService{
		client:   client,
		path:     parsed.Path,
		query:    parsed.Query(),
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

type rateResponse struct {
	Rates struct {
		USD float64 `json:"USD"`
	} `json:"rates"`
}

// USDRate returns the cached rate, refreshing it when stale. Any failure yields
// the fallback without caching it.
func (s *RateService) USDRate(ctx context.Context) float64 {
	s.mu.Lock()
	if s.rate > 0 && s.now().Sub(s.fetched) < s.ttl {
		rate := s.rate
		s.mu.Unlock()
		return rate
	}
	s.mu.Unlock()

	rate, err := s.fetch(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("exchange rate fetch failed", zap.Error(err))
		}
		return s.fallback
	}

	s.mu.Lock()
	s.rate = rate
	s.fetched = s.now()
	s.mu.Unlock()
	return rate
}

func (s *RateService) fetch(ctx context.Context) (float64, error) {
	var resp rateResponse
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodGet,
		Path:   s.path,
		Query:  s.query,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.Rates.USD <= 0 {
		return 0, errors.New("catalog: exchange rate missing USD")
	}
	return resp.Rates.USD, nil
}
