package checkout

import (
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
)

// PaymentMethod is the payment option chosen right before submitting an order.
type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentCard       PaymentMethod = "CARD"
	PaymentNetBanking PaymentMethod = "NET_BANKING"
	PaymentWallet     PaymentMethod = "WALLET"
)

// PaymentOption pairs a method with its display label.
type PaymentOption struct {
	Method PaymentMethod
	Label  string
}

// PaymentOptions lists every method in display order.
var PaymentOptions = []PaymentOption{
	{Method: PaymentCOD, Label: "Cash on Delivery"},
	{Method: PaymentUPI, Label: "UPI"},
	{Method: PaymentCard, Label: "Card"},
	{Method: PaymentNetBanking, Label: "Net Banking"},
	{Method: PaymentWallet, Label: "Wallet"},
}

// ParsePaymentMethod maps form input onto a known method. An empty value is
// COD; anything else unknown is a validation error.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	candidate := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate == "" {
		return PaymentCOD, nil
	}
	for _, opt := range PaymentOptions {
		if opt.Method == candidate {
			return candidate, nil
		}
	}
	return "", backend.NewValidationError("payment", "Select a valid payment method")
}

// Label returns the display label for m.
func (m PaymentMethod) Label() string {
	for _, opt := range PaymentOptions {
		if opt.Method == m {
			return opt.Label
		}
	}
	return string(m)
}
