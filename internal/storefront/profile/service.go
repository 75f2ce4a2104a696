// Package profile manages the shopper's profile and saved addresses.
package profile

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// Service exposes profile reads and writes.
type Service interface {
	Get(ctx context.Context, id session.Identity) (*Profile, error)
	// Update saves the editable fields and resends the current address set.
	Update(ctx context.Context, id session.Identity, update Update) (*Profile, error)
	// SaveAddresses replaces the stored address set.
	SaveAddresses(ctx context.Context, id session.Identity, addresses []Address) (*Profile, error)
	// AddAddress appends one address and returns it with its server id.
	AddAddress(ctx context.Context, id session.Identity, address Address) (Address, error)
}

// Profile is the backend's user document as shown on the profile page.
type Profile struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role,omitempty"`
	Mobile      string    `json:"mobile,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Addresses   []Address `json:"addresses"`
}

// BirthDate trims a timestamp to its date part for form inputs.
func (p *Profile) BirthDate() string {
	if len(p.DateOfBirth) >= 10 {
		return p.DateOfBirth[:10]
	}
	return p.DateOfBirth
}

// Update carries the editable profile fields.
type Update struct {
	Name        string
	Phone       string
	Gender      string
	DateOfBirth string
	Bio         string
}

// Genders lists the values offered by the gender select.
var Genders = []string{"male", "female", "other"}

var textPolicy = bluemonday.StrictPolicy()

// Normalize trims fields and strips markup from free text.
func (u Update) Normalize() Update {
	return Update{
		Name:        strings.TrimSpace(u.Name),
		Phone:       strings.TrimSpace(u.Phone),
		Gender:      strings.ToLower(strings.TrimSpace(u.Gender)),
		DateOfBirth: strings.TrimSpace(u.DateOfBirth),
		Bio:         strings.TrimSpace(textPolicy.Sanitize(u.Bio)),
	}
}

// Validate reports field problems before any request is sent.
func (u Update) Validate() error {
	verr := &backend.ValidationError{}
	if u.Name == "" {
		verr.Add("name", "Name is required")
	}
	if u.Gender != "" {
		known := false
		for _, g := range Genders {
			if g == u.Gender {
				known = true
			}
		}
		if !known {
			verr.Add("gender", "Select a valid gender")
		}
	}
	return verr.OrNil()
}
