package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// StaticService keeps carts in memory for local development and tests.
type StaticService struct {
	mu       sync.Mutex
	catalog  map[string]Product
	carts    map[string][]Item
	failNext error
}

// NewStaticService returns a StaticService that knows the given products.
func NewStaticService(products ...Product) *StaticService {
	catalog := make(map[string]Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return &StaticService{catalog: catalog, carts: make(map[string][]Item)}
}

// SampleProducts is a small fixed catalog used by the development server.
func SampleProducts() []Product {
	discount := decimal.NewFromInt(800)
	return []Product{
		{ID: "p-shoe", Title: "Trail Runner", Price: decimal.NewFromInt(1000), DiscountPrice: &discount, Thumbnail: "/static/img/shoe.png"},
		{ID: "p-bag", Title: "Canvas Tote", Price: decimal.NewFromInt(450), Thumbnail: "/static/img/tote.png"},
		{ID: "p-cap", Title: "Sun Cap", Price: decimal.NewFromInt(250), Thumbnail: "/static/img/cap.png"},
	}
}

// FailNext makes the next call for an authenticated shopper return err.
func (s *StaticService) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *StaticService) Get(_ context.Context, id session.Identity) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(id); err != nil {
		return nil, err
	}
	return s.snapshot(id.UserID), nil
}

func (s *StaticService) Add(ctx context.Context, id session.Identity, productID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, backend.NewValidationError("quantity", "Quantity must be at least 1")
	}
	return s.UpdateQuantity(ctx, id, productID, quantity)
}

func (s *StaticService) UpdateQuantity(_ context.Context, id session.Identity, productID string, delta int) (*Cart, error) {
	if err := validateProduct(productID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(id); err != nil {
		return nil, err
	}

	items := s.carts[id.UserID]
	for i := range items {
		if items[i].Product.ID != productID {
			continue
		}
		next := items[i].Quantity + delta
		if next < 1 {
			items = append(items[:i], items[i+1:]...)
		} else {
			items[i].Quantity = next
		}
		s.carts[id.UserID] = items
		return s.snapshot(id.UserID), nil
	}

	product, ok := s.catalog[productID]
	if !ok {
		return nil, &backend.BusinessError{Message: "Product not found"}
	}
	if delta < 1 {
		return s.snapshot(id.UserID), nil
	}
	s.carts[id.UserID] = append(items, Item{ID: "line-" + productID, Product: product, Quantity: delta})
	return s.snapshot(id.UserID), nil
}

func (s *StaticService) Remove(ctx context.Context, id session.Identity, productID string) (*Cart, error) {
	s.mu.Lock()
	qty := 0
	for _, item := range s.carts[id.UserID] {
		if item.Product.ID == productID {
			qty = item.Quantity
		}
	}
	s.mu.Unlock()
	if qty == 0 {
		return s.Get(ctx, id)
	}
	return s.UpdateQuantity(ctx, id, productID, -qty)
}

func (s *StaticService) takeFailure(id session.Identity) error {
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	return nil
}

func (s *StaticService) snapshot(userID string) *Cart {
	items := append([]Item(nil), s.carts[userID]...)
	return &Cart{ID: "cart-" + userID, Items: items}
}
