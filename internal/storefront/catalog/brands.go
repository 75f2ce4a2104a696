package catalog

import (
	"net/url"
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
)

// Brand is a product brand.
type Brand struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Website     string `json:"website,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// EditKey is the identifier the edit page is addressed by.
func (b Brand) EditKey() string {
	if b.Slug != "" {
		return b.Slug
	}
	return b.ID
}

// BrandPage is one page of the admin brand table.
type BrandPage struct {
	Brands     []Brand
	Total      int
	Page       int
	TotalPages int
}

// BrandInput is the admin create and edit form.
type BrandInput struct {
	Name        string
	Description string
	Website     string
	Logo        *backend.File
}

// Normalize trims every text field.
func (in BrandInput) Normalize() BrandInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Website = strings.TrimSpace(in.Website)
	return in
}

// Validate requires a name; a website, when given, must be an absolute http(s) URL.
func (in BrandInput) Validate() error {
	verr := &backend.ValidationError{}
	if in.Name == "" {
		verr.Add("name", "Brand name is required")
	}
	if in.Website != "" {
		u, err := url.Parse(in.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verr.Add("website", "Website must be a full http(s) address")
		}
	}
	return verr.OrNil()
}

type brandUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

func (in BrandInput) createForm() *backend.Form {
	f := backend.NewForm().
		Set("name", in.Name).
		Set("description", in.Description).
		Set("website", in.Website)
	in.attachLogo(f)
	return f
}

func (in BrandInput) attachLogo(f *backend.Form) {
	if in.Logo == nil {
		return
	}
	logo := *in.Logo
	logo.Field = "logo"
	f.AddFile(logo)
}

// InputFromBrand prefills the edit form.
func InputFromBrand(b Brand) BrandInput {
	return BrandInput{Name: b.Name, Description: b.Description, Website: b.Website}
}
