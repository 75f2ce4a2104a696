// Package checkout turns a cart snapshot, an address and a payment choice into
// a single order submission.
package checkout

import (
	"context"
	"net/http"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// Service submits orders.
type Service interface {
	// PlaceOrder sends order once. It never retries.
	PlaceOrder(ctx context.Context, id session.Identity, order Order) (Placed, error)
}

// Order is the body of POST /orders/create.
type Order struct {
	ShippingAddress profile.Address
	Payment         PaymentMethod
	Items           []cart.Item
	Total           decimal.Decimal
	IdempotencyKey  string
}

// Placed identifies the created order when the backend returns it.
type Placed struct {
	OrderID string
}

// BuildOrder assembles the submission from the draft and the shopper's saved
// addresses. The session's name and mobile take precedence over the address record.
func BuildOrder(id session.Identity, draft Draft, addresses []profile.Address) (Order, error) {
	if len(draft.Items) == 0 {
		return Order{}, backend.NewValidationError("items", "Your cart is empty")
	}
	selected, ok := profile.Find(addresses, draft.SelectedAddressID)
	if !ok {
		return Order{}, backend.NewValidationError("address", "Please select an address")
	}
	if id.Name != "" {
		selected.FullName = id.Name
	}
	if id.Mobile != "" {
		selected.Phone = id.Mobile
	}
	payment := draft.Payment
	if payment == "" {
		payment = PaymentCOD
	}
	return Order{
		ShippingAddress: selected,
		Payment:         payment,
		Items:           append([]cart.Item(nil), draft.Items...),
		Total:           draft.Total,
		IdempotencyKey:  ulid.Make().String(),
	}, nil
}

// SelectInitialAddress keeps a still-valid selection, else picks the default,
// else the first address.
func SelectInitialAddress(addresses []profile.Address, current string) string {
	if _, ok := profile.Find(addresses, current); ok {
		return current
	}
	if preferred, ok := profile.Preferred(addresses); ok {
		return preferred.ID
	}
	return ""
}

// HTTPService implements Service against POST /orders/create.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a Service backed by the shared backend client.
func NewHTTPService(client *backend.Client) *HTTPService {
	return &HTTPService{client: client}
}

type wireProduct struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
}

type wireItem struct {
	ID       string      `json:"_id,omitempty"`
	Product  wireProduct `json:"product"`
	Quantity int         `json:"quantity"`
}

type wirePayment struct {
	Method PaymentMethod `json:"method"`
}

type wireOrder struct {
	ShippingAddress profile.Address `json:"shippingAddress"`
	Payment         wirePayment     `json:"payment"`
	Items           []wireItem      `json:"items"`
	Total           float64         `json:"total"`
}

func (s *HTTPService) PlaceOrder(ctx context.Context, id session.Identity, order Order) (Placed, error) {
	if order.ShippingAddress.Street == "" && order.ShippingAddress.ID == "" {
		return Placed{}, backend.NewValidationError("address", "Please select an address")
	}
	body := wireOrder{
		ShippingAddress: order.ShippingAddress,
		Payment:         wirePayment{Method: order.Payment},
		Items:           make([]wireItem, 0, len(order.Items)),
		Total:           order.Total.InexactFloat64(),
	}
	for _, item := range order.Items {
		p := wireProduct{
			ID:        item.Product.ID,
			Title:     item.Product.Title,
			Price:     item.Product.Price.InexactFloat64(),
			Thumbnail: item.Product.Thumbnail,
		}
		if item.Product.DiscountPrice != nil {
			v := item.Product.DiscountPrice.InexactFloat64()
			p.DiscountPrice = &v
		}
		body.Items = append(body.Items, wireItem{ID: item.ID, Product: p, Quantity: item.Quantity})
	}

	header := http.Header{}
	if order.IdempotencyKey != "" {
		header.Set("Idempotency-Key", order.IdempotencyKey)
	}
	var resp struct {
		Data *struct {
			ID string `json:"_id"`
		} `json:"data"`
	}
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/orders/create",
		Token:  id.Token,
		JSON:   body,
		Header: header,
	}, &resp)
	if err != nil {
		return Placed{}, err
	}
	placed := Placed{}
	if resp.Data != nil {
		placed.OrderID = resp.Data.ID
	}
	return placed, nil
}

// StaticService records submitted orders in memory.
type StaticService struct {
	mu     sync.Mutex
	orders []Order
	err    error
}

// NewStaticService returns an empty StaticService.
func NewStaticService() *StaticService {
	return &StaticService{}
}

// FailWith makes every following PlaceOrder return err until cleared with nil.
func (s *StaticService) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Submitted returns a copy of the recorded orders.
func (s *StaticService) Submitted() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Order(nil), s.orders...)
}

func (s *StaticService) PlaceOrder(_ context.Context, id session.Identity, order Order) (Placed, error) {
	if !id.Authenticated() {
		return Placed{}, backend.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Placed{}, s.err
	}
	s.orders = append(s.orders, order)
	return Placed{OrderID: order.IdempotencyKey}, nil
}
