package cart

import (
	"context"
	"net/http"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// removeSentinel is the delta the backend interprets as "drop the line item".
const removeSentinel = -999

const cartPath = "/users/cart"

// HTTPService implements Service against POST /users/cart.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service backed by the shared backend client.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

type cartResponse struct {
	Cart *Cart `json:"cart"`
}

type mutation struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Get posts an empty body, which the backend treats as a read.
func (s *HTTPService) Get(ctx context.Context, id session.Identity) (*Cart, error) {
	return s.post(ctx, id, struct{}{})
}

// Add sends a positive delta for a product that may not be in the cart yet.
func (s *HTTPService) Add(ctx context.Context, id session.Identity, productID string, quantity int) (*Cart, error) {
	if err := validateProduct(productID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, backend.NewValidationError("quantity", "Quantity must be at least 1")
	}
	return s.post(ctx, id, mutation{ProductID: productID, Quantity: quantity})
}

// UpdateQuantity sends delta as-is.
func (s *HTTPService) UpdateQuantity(ctx context.Context, id session.Identity, productID string, delta int) (*Cart, error) {
	if err := validateProduct(productID); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, backend.NewValidationError("quantity", "Quantity change is required")
	}
	return s.post(ctx, id, mutation{ProductID: productID, Quantity: delta})
}

// Remove is sent to the same endpoint with the removal sentinel.
func (s *HTTPService) Remove(ctx context.Context, id session.Identity, productID string) (*Cart, error) {
	if err := validateProduct(productID); err != nil {
		return nil, err
	}
	return s.post(ctx, id, mutation{ProductID: productID, Quantity: removeSentinel})
}

func (s *HTTPService) post(ctx context.Context, id session.Identity, body any) (*Cart, error) {
	var resp cartResponse
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   cartPath,
		Token:  id.Token,
		JSON:   body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Cart == nil {
		return &Cart{}, nil
	}
	return resp.Cart, nil
}
