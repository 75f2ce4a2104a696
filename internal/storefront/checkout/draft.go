package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/cart"
)

// ErrDraftNotFound is returned when a draft is missing or expired.
var ErrDraftNotFound = errors.New("checkout: draft not found")

// Draft is the cart snapshot handed from the cart page to checkout, plus the
// shopper's in-progress choices. Items and Total are never re-derived.
type Draft struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Items             []cart.Item     `json:"items"`
	Total             decimal.Decimal `json:"total"`
	SelectedAddressID string          `json:"selectedAddressId,omitempty"`
	Payment           PaymentMethod   `json:"payment"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// NewDraft snapshots c for userID.
func NewDraft(userID string, c *cart.Cart, now time.Time) Draft {
	items := []cart.Item{}
	if c != nil {
		items = append(items, c.Items...)
	}
	return Draft{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     items,
		Total:     c.Totals().Price,
		Payment:   PaymentCOD,
		CreatedAt: now.UTC(),
	}
}

// Quantity sums the snapshot's item quantities.
func (d Draft) Quantity() int {
	return cart.Sum(d.Items).Quantity
}

// DraftStore persists drafts between the checkout page's requests.
type DraftStore interface {
	Save(ctx context.Context, draft Draft) error
	Load(ctx context.Context, id string) (Draft, error)
	Delete(ctx context.Context, id string) error
}

// MemoryDraftStore is a process-local DraftStore with expiry.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]memoryEntry
	ttl    time.Duration
	now    func() time.Time
}

type memoryEntry struct {
	draft   Draft
	expires time.Time
}

// NewMemoryDraftStore returns a store whose drafts expire after ttl.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &MemoryDraftStore{drafts: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryDraftStore) Save(_ context.Context, draft Draft) error {
	if draft.ID == "" {
		return errors.New("checkout: draft id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, entry := range s.drafts {
		if now.After(entry.expires) {
			delete(s.drafts, id)
		}
	}
	s.drafts[draft.ID] = memoryEntry{draft: draft, expires: now.Add(s.ttl)}
	return nil
}

func (s *MemoryDraftStore) Load(_ context.Context, id string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.drafts[id]
	if !ok || s.now().After(entry.expires) {
		return Draft{}, ErrDraftNotFound
	}
	return entry.draft, nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return nil
}
