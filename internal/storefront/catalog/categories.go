package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
)

// Category is a product category; the with-subcategories endpoint nests children.
type Category struct {
	ID             string      `json:"_id"`
	Name           string      `json:"name"`
	Slug           string      `json:"slug,omitempty"`
	Description    string      `json:"description,omitempty"`
	Image          string      `json:"image,omitempty"`
	ParentCategory backend.Ref `json:"parentCategory,omitempty"`
	IsFeatured     bool        `json:"isFeatured"`
	SortOrder      int         `json:"sortOrder"`
	IsActive       bool        `json:"isActive"`
	SubCategories  []Category  `json:"subCategories,omitempty"`
}

// CategoryPage is one page of the admin category table.
type CategoryPage struct {
	Categories []Category
	Total      int
	Page       int
	TotalPages int
}

// CategoryInput is the admin create and edit form.
type CategoryInput struct {
	Name           string
	Slug           string
	Description    string
	ParentCategory string
	IsFeatured     bool
	SortOrder      string
	IsActive       bool
	// Image is uploaded on create; ImageURL is kept on edit.
	Image    *backend.File
	ImageURL string
}

// Normalize trims fields and derives a slug from the name when none was given.
func (in CategoryInput) Normalize() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ParentCategory = strings.TrimSpace(in.ParentCategory)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Slug = Slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = Slugify(in.Name)
	}
	return in
}

// Validate requires a name and slug and a numeric sort order.
func (in CategoryInput) Validate() error {
	verr := &backend.ValidationError{}
	if in.Name == "" || in.Slug == "" {
		verr.Add("name", "Category name and slug are required")
	}
	if _, err := in.sortOrder(); err != nil {
		verr.Add("sortOrder", "Sort order must be a number")
	}
	return verr.OrNil()
}

func (in CategoryInput) sortOrder() (int, error) {
	s := strings.TrimSpace(in.SortOrder)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (in CategoryInput) form() *backend.Form {
	order, _ := in.sortOrder()
	f := backend.NewForm().
		Set("name", in.Name).
		Set("slug", in.Slug).
		Set("description", in.Description).
		Set("parentCategory", in.ParentCategory).
		Set("isFeatured", strconv.FormatBool(in.IsFeatured)).
		Set("sortOrder", strconv.Itoa(order)).
		Set("isActive", strconv.FormatBool(in.IsActive))
	if in.Image != nil {
		img := *in.Image
		img.Field = "image"
		f.AddFile(img)
	}
	return f
}

type categoryUpdate struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsFeatured  bool   `json:"isFeatured"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}

func (in CategoryInput) update() categoryUpdate {
	order, _ := in.sortOrder()
	return categoryUpdate{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Image:       in.ImageURL,
		IsFeatured:  in.IsFeatured,
		SortOrder:   order,
		IsActive:    in.IsActive,
	}
}

// InputFromCategory prefills the edit form.
func InputFromCategory(c Category) CategoryInput {
	return CategoryInput{
		Name:           c.Name,
		Slug:           c.Slug,
		Description:    c.Description,
		ParentCategory: c.ParentCategory.ID,
		IsFeatured:     c.IsFeatured,
		SortOrder:      strconv.Itoa(c.SortOrder),
		IsActive:       c.IsActive,
		ImageURL:       c.Image,
	}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases s, drops accents and joins words with single hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}
