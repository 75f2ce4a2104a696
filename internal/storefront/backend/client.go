// Package backend is the single HTTP client every page uses to reach the REST
// backend. It owns bearer-token injection, envelope decoding and the error taxonomy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/platform/requestctx"
)

const (
	maxResponseBytes       = 8 << 20
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL         string
	HTTPClient      HTTPClient
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
	Logger          *zap.Logger
}

// Client issues requests against a fixed backend base URL.
type Client struct {
	base    *url.URL
	client  HTTPClient
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[*response]
	logger  *zap.Logger
}

// Call describes one backend request. Paths are relative to the base URL.
type Call struct {
	Method string
	Path   string
	Token  string
	Query  url.Values
	JSON   any
	Form   *Form
	Header http.Header
}

type response struct {
	status int
	body   []byte
}

// New constructs a Client. A nil HTTPClient gets an otelhttp-instrumented default.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = defaultBreakerFailures
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}

	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			return !countsAsOutage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("backend circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		base:    parsed,
		client:  client,
		timeout: cfg.Timeout,
		breaker: breaker,
		logger:  logger,
	}, nil
}

// Do performs call and decodes the JSON payload into out when out is non-nil.
// A response carrying success=false is returned as *BusinessError.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, call)
	if err != nil {
		return err
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.execute(req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.logFailure(ctx, call, err)
		return err
	}

	if err := decodeResponse(resp, out); err != nil {
		c.logFailure(ctx, call, err)
		return err
	}
	return nil
}

func (c *Client) execute(req *http.Request) (*response, error) {
	res, err := c.client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	out := &response{status: res.StatusCode, body: body}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return out, ErrUnauthorized
	case res.StatusCode >= 400:
		return out, &HTTPError{Status: res.StatusCode, Message: envelopeMessage(body)}
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case call.Form != nil:
		encoded, ct, err := call.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = encoded, ct
	case call.JSON != nil:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(call.JSON); err != nil {
			return nil, fmt.Errorf("backend: encode payload: %w", err)
		}
		body, contentType = &buf, "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(call.Path, call.Query), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	for name, values := range call.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := strings.TrimSpace(call.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	resolved := c.base.ResolveReference(ref)
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	}
	return resolved.String()
}

func (c *Client) logFailure(ctx context.Context, call Call, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger := requestctx.Logger(ctx)
	if logger == requestctx.NoopLogger() {
		logger = c.logger
	}
	fields := []zap.Field{
		zap.String("backend_method", call.Method),
		zap.String("backend_path", call.Path),
		zap.Error(err),
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		fields = append(fields, zap.Int("backend_status", httpErr.Status))
	}
	var business *BusinessError
	switch {
	case errors.As(err, &business), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotFound):
		logger.Info("backend call rejected", fields...)
	default:
		logger.Warn("backend call failed", fields...)
	}
}

// countsAsOutage reports whether err should move the circuit breaker towards open.
func countsAsOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status >= 500
	}
	return false
}
