package orders

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// StaticService provides deterministic order data suitable for local development and tests.
type StaticService struct {
	mu     sync.Mutex
	orders map[string]*Order
	order  []string
	calls  map[string]int
	err    error
}

// NewStaticService returns a StaticService holding orders in the given order.
func NewStaticService(list ...Order) *StaticService {
	svc := &StaticService{orders: make(map[string]*Order), calls: make(map[string]int)}
	for _, o := range list {
		copied := o
		svc.orders[o.ID] = &copied
		svc.order = append(svc.order, o.ID)
	}
	return svc
}

// SampleOrders returns one order in each interesting state.
func SampleOrders() []Order {
	created := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	item := Item{Title: "Trail Runner", Price: decimal.NewFromInt(800), Quantity: 2}
	return []Order{
		{ID: "o-placed", Status: StatusPlaced, Items: []Item{item}, Pricing: Pricing{GrandTotal: decimal.NewFromInt(1600)}, CreatedAt: &created},
		{ID: "o-delivered", Status: StatusDelivered, Items: []Item{item}, Pricing: Pricing{GrandTotal: decimal.NewFromInt(1600)}, CreatedAt: &created},
		{ID: "o-shipped", Status: StatusShipped, Items: []Item{item}, Pricing: Pricing{GrandTotal: decimal.NewFromInt(1600)}, CreatedAt: &created},
	}
}

// FailWith makes every following mutation return err until cleared with nil.
func (s *StaticService) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// SetStatus changes an order as if the server moved it.
func (s *StaticService) SetStatus(orderID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		o.Status = status
	}
}

// Calls reports how many times method was invoked.
func (s *StaticService) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *StaticService) List(_ context.Context, id session.Identity) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["List"]++
	if !id.Authenticated() {
		return nil, backend.ErrUnauthorized
	}
	out := make([]Order, 0, len(s.order))
	for _, oid := range s.order {
		out = append(out, *s.orders[oid])
	}
	return out, nil
}

func (s *StaticService) Get(_ context.Context, id session.Identity, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["Get"]++
	if !id.Authenticated() {
		return nil, backend.ErrUnauthorized
	}
	o, ok := s.orders[orderID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *StaticService) Cancel(_ context.Context, id session.Identity, orderID, reason string) error {
	return s.transition(id, "Cancel", orderID, StatusPlaced, StatusCancelled, reason)
}

func (s *StaticService) RequestReturn(_ context.Context, id session.Identity, orderID string) error {
	return s.transition(id, "RequestReturn", orderID, StatusDelivered, StatusReturnRequested, "")
}

func (s *StaticService) transition(id session.Identity, method, orderID string, from, to Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[method]++
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	if s.err != nil {
		return s.err
	}
	o, ok := s.orders[orderID]
	if !ok {
		return backend.ErrNotFound
	}
	if o.Status != from {
		return &backend.BusinessError{Message: "Order cannot be updated in its current state"}
	}
	o.Status = to
	if reason != "" {
		o.CancellationReason = reason
	}
	return nil
}
