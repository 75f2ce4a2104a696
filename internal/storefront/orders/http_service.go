package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// HTTPService implements Service against the /orders endpoints.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service backed by the shared backend client.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

func (s *HTTPService) List(ctx context.Context, id session.Identity) ([]Order, error) {
	var resp struct {
		Data []Order `json:"data"`
	}
	if err := s.client.Do(ctx, backend.Call{Method: http.MethodPost, Path: "/orders/my", Token: id.Token}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Order{}, nil
	}
	return resp.Data, nil
}

// Get accepts the order either under "data" or as the top-level document.
func (s *HTTPService) Get(ctx context.Context, id session.Identity, orderID string) (*Order, error) {
	if !backend.ValidID(orderID) {
		return nil, backend.ErrNotFound
	}
	var raw json.RawMessage
	if err := s.client.Do(ctx, backend.Call{Method: http.MethodGet, Path: orderPath(orderID), Token: id.Token}, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("orders: decode order: %w", err)
	}
	doc := raw
	if len(bytes.TrimSpace(wrapped.Data)) > 0 && !bytes.Equal(bytes.TrimSpace(wrapped.Data), []byte("null")) {
		doc = wrapped.Data
	}
	var order Order
	if err := json.Unmarshal(doc, &order); err != nil {
		return nil, fmt.Errorf("orders: decode order: %w", err)
	}
	if order.ID == "" {
		return nil, backend.ErrNotFound
	}
	return &order, nil
}

func (s *HTTPService) Cancel(ctx context.Context, id session.Identity, orderID, reason string) error {
	if !backend.ValidID(orderID) {
		return backend.ErrNotFound
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return backend.NewValidationError("reason", "Please select a reason")
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   orderPath(orderID) + "/cancel",
		Token:  id.Token,
		JSON:   map[string]string{"reason": reason},
	}, nil)
}

func (s *HTTPService) RequestReturn(ctx context.Context, id session.Identity, orderID string) error {
	if !backend.ValidID(orderID) {
		return backend.ErrNotFound
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   orderPath(orderID) + "/return",
		Token:  id.Token,
	}, nil)
}

func orderPath(orderID string) string {
	return "/orders/" + orderID
}
