// Package format renders prices, dates and status labels for templates.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency is the shopper's display currency. Prices are stored in INR.
type Currency string

const (
	INR Currency = "INR"
	USD Currency = "USD"
)

// ParseCurrency maps a query or cookie value onto a Currency, defaulting to INR.
func ParseCurrency(raw string) Currency {
	if Currency(strings.ToUpper(strings.TrimSpace(raw))) == USD {
		return USD
	}
	return INR
}

// Toggle returns the other currency.
func (c Currency) Toggle() Currency {
	if c == USD {
		return INR
	}
	return USD
}

var (
	supported = []language.Tag{language.MustParse("en-IN"), language.English, language.Hindi}
	matcher   = language.NewMatcher(supported)
)

// MatchLanguage picks the best supported tag for an Accept-Language header.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Formatter formats numbers for one language.
type Formatter struct {
	printer *message.Printer
}

// New returns a Formatter for tag.
func New(tag language.Tag) Formatter {
	return Formatter{printer: message.NewPrinter(tag)}
}

// Default is the formatter used when no request language is known.
func Default() Formatter {
	return New(supported[0])
}

// INR renders an amount in rupees with grouping and at most two decimals.
func (f Formatter) INR(amount decimal.Decimal) string {
	return "₹" + f.printer.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}

// USD converts a rupee amount with rate and renders it with exactly two decimals.
func (f Formatter) USD(amount decimal.Decimal, rate float64) string {
	converted := amount.Mul(decimal.NewFromFloat(rate)).Round(2)
	return "$" + f.printer.Sprint(number.Decimal(converted.InexactFloat64(), number.Scale(2)))
}

// Price renders amount in the selected currency.
func (f Formatter) Price(amount decimal.Decimal, currency Currency, rate float64) string {
	if currency == USD {
		return f.USD(amount, rate)
	}
	return f.INR(amount)
}

// Date formats t in a short human form. A nil or zero time renders empty.
func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// Status turns an UPPER_SNAKE status into words.
func Status(raw string) string {
	return strings.ReplaceAll(raw, "_", " ")
}

// StatusTone maps an order status onto a badge tone.
func StatusTone(raw string) string {
	switch raw {
	case "DELIVERED":
		return "success"
	case "CANCELLED":
		return "danger"
	case "RETURN_REQUESTED", "SHIPPED":
		return "warning"
	default:
		return "info"
	}
}
