// Package cart reads and mutates the server-persisted shopping cart.
package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// ErrAtMinimum is returned when a decrement would take a line item below one.
// Items are removed, never set to zero.
var ErrAtMinimum = errors.New("cart: quantity is already at the minimum")

// Service exposes cart operations for the storefront pages.
type Service interface {
	// Get returns the shopper's cart. A missing cart is returned as an empty one.
	Get(ctx context.Context, id session.Identity) (*Cart, error)
	// Add puts quantity units of product into the cart.
	Add(ctx context.Context, id session.Identity, productID string, quantity int) (*Cart, error)
	// UpdateQuantity changes a line item by delta units and returns the cart the server reports.
	UpdateQuantity(ctx context.Context, id session.Identity, productID string, delta int) (*Cart, error)
	// Remove deletes the line item for product.
	Remove(ctx context.Context, id session.Identity, productID string) (*Cart, error)
}

// Product is the product snapshot embedded in a line item.
type Product struct {
	ID            string           `json:"_id"`
	Title         string           `json:"title"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
	Thumbnail     string           `json:"thumbnail,omitempty"`
	Brand         backend.Ref      `json:"brand,omitempty"`
	Category      backend.Ref      `json:"category,omitempty"`
}

// UnitPrice is the discount price when present, otherwise the list price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// Item is one (product, quantity) pair.
type Item struct {
	ID       string  `json:"_id,omitempty"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CanDecrement reports whether the decrement control is offered.
func (i Item) CanDecrement() bool {
	return i.Quantity > 1
}

// Cart is the server's cart document.
type Cart struct {
	ID    string `json:"_id,omitempty"`
	Items []Item `json:"items"`
}

// Totals are derived from the items on every call and never stored.
type Totals struct {
	Price    decimal.Decimal
	Quantity int
}

// Empty reports whether there is nothing to check out.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// Totals sums (discountPrice ?? price) × quantity and quantity over every item.
func (c *Cart) Totals() Totals {
	return Sum(c.itemsOrNil())
}

// Item returns the line item holding product.
func (c *Cart) Item(productID string) (Item, bool) {
	for _, item := range c.itemsOrNil() {
		if item.Product.ID == productID {
			return item, true
		}
	}
	return Item{}, false
}

func (c *Cart) itemsOrNil() []Item {
	if c == nil {
		return nil
	}
	return c.Items
}

// Sum totals an arbitrary item list.
func Sum(items []Item) Totals {
	totals := Totals{Price: decimal.Zero}
	for _, item := range items {
		totals.Price = totals.Price.Add(item.Subtotal())
		totals.Quantity += item.Quantity
	}
	return totals
}

// Decrement lowers product by one unit, refusing when the item is at quantity one
// or absent.
func Decrement(ctx context.Context, svc Service, id session.Identity, productID string) (*Cart, error) {
	current, err := svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item, ok := current.Item(productID)
	if !ok {
		return nil, backend.ErrNotFound
	}
	if !item.CanDecrement() {
		return nil, ErrAtMinimum
	}
	return svc.UpdateQuantity(ctx, id, productID, -1)
}

func validateProduct(productID string) error {
	if productID == "" {
		return backend.NewValidationError("productId", "Product is required")
	}
	return nil
}
