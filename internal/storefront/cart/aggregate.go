package cart

import (
	"sync"
	"time"
)

// Aggregate is an in-memory product-id → line-item map per browser session,
// independent of the server cart. The product page's quick-buy panel collects
// items here without touching the persisted cart.
type Aggregate struct {
	mu      sync.Mutex
	baskets map[string]*basket
	ttl     time.Duration
	now     func() time.Time
}

type basket struct {
	order   []string
	items   map[string]Item
	touched time.Time
}

// NewAggregate returns an Aggregate whose idle baskets are dropped after ttl.
func NewAggregate(ttl time.Duration) *Aggregate {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Aggregate{baskets: make(map[string]*basket), ttl: ttl, now: time.Now}
}

// Add increments product by one, inserting it with quantity one when new.
func (a *Aggregate) Add(sessionID string, product Product) []Item {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.sweepLocked(now)
	b, ok := a.baskets[sessionID]
	if !ok {
		b = &basket{items: make(map[string]Item)}
		a.baskets[sessionID] = b
	}
	b.touched = now
	if item, ok := b.items[product.ID]; ok {
		item.Quantity++
		b.items[product.ID] = item
	} else {
		b.order = append(b.order, product.ID)
		b.items[product.ID] = Item{Product: product, Quantity: 1}
	}
	return b.list()
}

// Items returns the basket contents in insertion order.
func (a *Aggregate) Items(sessionID string) []Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.baskets[sessionID]
	if !ok || a.now().Sub(b.touched) > a.ttl {
		return nil
	}
	return b.list()
}

// Clear empties the basket.
func (a *Aggregate) Clear(sessionID string) {
	a.mu.Lock()
	delete(a.baskets, sessionID)
	a.mu.Unlock()
}

func (a *Aggregate) sweepLocked(now time.Time) {
	for id, b := range a.baskets {
		if now.Sub(b.touched) > a.ttl {
			delete(a.baskets, id)
		}
	}
}

func (b *basket) list() []Item {
	out := make([]Item, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.items[id])
	}
	return out
}
