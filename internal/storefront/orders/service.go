// Package orders lists the shopper's orders and applies the cancel and return
// transitions the storefront allows.
package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// ErrActionNotAllowed is returned when a transition is not offered for the order's status.
var ErrActionNotAllowed = errors.New("orders: action not allowed for this status")

// Service exposes order reads and shopper-initiated transitions.
type Service interface {
	List(ctx context.Context, id session.Identity) ([]Order, error)
	Get(ctx context.Context, id session.Identity, orderID string) (*Order, error)
	Cancel(ctx context.Context, id session.Identity, orderID, reason string) error
	RequestReturn(ctx context.Context, id session.Identity, orderID string) error
}

// Status is the server-owned order lifecycle state.
type Status string

const (
	StatusPlaced          Status = "PLACED"
	StatusConfirmed       Status = "CONFIRMED"
	StatusShipped         Status = "SHIPPED"
	StatusDelivered       Status = "DELIVERED"
	StatusCancelled       Status = "CANCELLED"
	StatusReturnRequested Status = "RETURN_REQUESTED"
)

// Display de-slugifies the status for humans.
func (s Status) Display() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Slug is a lowercase CSS-safe form used for badge classes.
func (s Status) Slug() string {
	return strings.ToLower(string(s))
}

// Item is an order line as stored by the backend.
type Item struct {
	Product   backend.Ref     `json:"product"`
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Pricing is the order's price breakdown.
type Pricing struct {
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Order is the read-only projection the storefront renders.
type Order struct {
	ID                 string     `json:"_id"`
	Items              []Item     `json:"items"`
	Pricing            Pricing    `json:"pricing"`
	Status             Status     `json:"orderStatus"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
}

// CanCancel reports whether the cancel action is offered.
func (o *Order) CanCancel() bool {
	return o != nil && o.Status == StatusPlaced
}

// CanRequestReturn reports whether the return action is offered.
func (o *Order) CanRequestReturn() bool {
	return o != nil && o.Status == StatusDelivered
}

// ReasonOther is the choice that requires free text.
const ReasonOther = "Other"

// CancelReasons lists the fixed cancellation choices in display order.
var CancelReasons = []string{
	"Changed my mind",
	"Ordered by mistake",
	"Found a better price",
	ReasonOther,
}

// ResolveCancelReason validates the selected choice and returns the reason to send.
// "Other" is replaced by the trimmed free text, which must not be empty.
func ResolveCancelReason(choice, other string) (string, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return "", backend.NewValidationError("reason", "Please select a reason")
	}
	known := false
	for _, r := range CancelReasons {
		if r == choice {
			known = true
			break
		}
	}
	if !known {
		return "", backend.NewValidationError("reason", "Please select a reason")
	}
	if choice != ReasonOther {
		return choice, nil
	}
	other = strings.TrimSpace(other)
	if other == "" {
		return "", backend.NewValidationError("otherReason", "Please write your reason")
	}
	return other, nil
}
