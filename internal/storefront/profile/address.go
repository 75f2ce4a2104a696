package profile

import (
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
)

// DefaultCountry prefills new shipping addresses.
const DefaultCountry = "India"

// Address is a saved postal address. At most one per user has IsDefault set.
type Address struct {
	ID         string `json:"_id,omitempty"`
	Label      string `json:"label,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	IsDefault  bool   `json:"isDefault"`
}

// Title is the label, the recipient name or the street, whichever is set first.
func (a Address) Title() string {
	for _, candidate := range []string{a.Label, a.FullName, a.Street} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return "Address"
}

// Locality joins city, state and postal code.
func (a Address) Locality() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.City, a.State, a.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Normalize trims every field.
func (a Address) Normalize() Address {
	a.Label = strings.TrimSpace(a.Label)
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	return a
}

// ValidateSaved checks an address edited on the profile page: label and street are required.
func ValidateSaved(a Address) error {
	verr := &backend.ValidationError{}
	if a.Label == "" {
		verr.Add("label", "Label and Street are required")
	}
	if a.Street == "" {
		verr.Add("street", "Label and Street are required")
	}
	return verr.OrNil()
}

// ValidateShipping checks an address entered at checkout.
func ValidateShipping(a Address) error {
	verr := &backend.ValidationError{}
	if a.Street == "" {
		verr.Add("street", "Street is required")
	}
	if a.City == "" {
		verr.Add("city", "City is required")
	}
	return verr.OrNil()
}

// SetDefault returns a copy of addresses where only index is flagged default.
func SetDefault(addresses []Address, index int) []Address {
	out := make([]Address, len(addresses))
	for i, a := range addresses {
		a.IsDefault = i == index
		out[i] = a
	}
	return out
}

// Upsert replaces the address at index, or appends when index is out of range.
// When the saved address is flagged default every other flag is cleared.
func Upsert(addresses []Address, address Address, index int) []Address {
	out := append([]Address(nil), addresses...)
	target := index
	if index >= 0 && index < len(out) {
		if address.ID == "" {
			address.ID = out[index].ID
		}
		out[index] = address
	} else {
		out = append(out, address)
		target = len(out) - 1
	}
	if address.IsDefault {
		out = SetDefault(out, target)
	}
	return out
}

// RemoveAt drops the address at index.
func RemoveAt(addresses []Address, index int) []Address {
	if index < 0 || index >= len(addresses) {
		return append([]Address(nil), addresses...)
	}
	out := make([]Address, 0, len(addresses)-1)
	out = append(out, addresses[:index]...)
	return append(out, addresses[index+1:]...)
}

// Preferred returns the default address, else the first one.
func Preferred(addresses []Address) (Address, bool) {
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	if len(addresses) > 0 {
		return addresses[0], true
	}
	return Address{}, false
}

// Find looks an address up by id.
func Find(addresses []Address, id string) (Address, bool) {
	if id == "" {
		return Address{}, false
	}
	for _, a := range addresses {
		if a.ID == id {
			return a, true
		}
	}
	return Address{}, false
}
