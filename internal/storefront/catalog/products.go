package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
)

// DefaultImageMaxBytes is the per-file ceiling for product images.
const DefaultImageMaxBytes int64 = 100 * 1024

// Review is one shopper rating attached to a product.
type Review struct {
	ID      string      `json:"_id,omitempty"`
	User    backend.Ref `json:"user,omitempty"`
	Rating  int         `json:"rating"`
	Comment string      `json:"comment,omitempty"`
}

// Product is the backend product document.
type Product struct {
	ID             string           `json:"_id"`
	Title          string           `json:"title"`
	Slug           string           `json:"slug,omitempty"`
	Description    string           `json:"description,omitempty"`
	Specifications string           `json:"specifications,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discountPrice,omitempty"`
	Stock          int              `json:"stock,omitempty"`
	Warranty       string           `json:"warranty,omitempty"`
	ShippingInfo   string           `json:"shippingInfo,omitempty"`
	ReturnPolicy   string           `json:"returnPolicy,omitempty"`
	Thumbnail      string           `json:"thumbnail,omitempty"`
	Images         []string         `json:"images,omitempty"`
	Category       backend.Ref      `json:"category,omitempty"`
	Brand          backend.Ref      `json:"brand,omitempty"`
	IsActive       bool             `json:"isActive"`
	IsWishlisted   bool             `json:"isWishlisted,omitempty"`
	Reviews        []Review         `json:"reviews,omitempty"`
}

// UnitPrice is the discount price when present, otherwise the list price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// HasDiscount reports whether a lower discount price applies.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice != nil && p.DiscountPrice.LessThan(p.Price)
}

// Gallery is the thumbnail followed by every other image, without blanks or repeats.
func (p Product) Gallery() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(p.Images)+1)
	for _, img := range append([]string{p.Thumbnail}, p.Images...) {
		if img == "" || seen[img] {
			continue
		}
		seen[img] = true
		out = append(out, img)
	}
	return out
}

// AverageRating returns the mean review rating and whether any reviews exist.
func (p Product) AverageRating() (float64, bool) {
	if len(p.Reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews)), true
}

// RatingLabel is the mean rating to one decimal place, or "No ratings".
func (p Product) RatingLabel() string {
	avg, ok := p.AverageRating()
	if !ok {
		return "No ratings"
	}
	return strconv.FormatFloat(avg, 'f', 1, 64)
}

// FullStars is the floored mean rating used to light stars.
func (p Product) FullStars() int {
	avg, _ := p.AverageRating()
	return int(math.Floor(avg))
}

// ProductQuery filters the products page.
type ProductQuery struct {
	Page     int
	Size     int
	Search   string
	Category string
}

// ProductPage is one page of products plus the derived page count.
type ProductPage struct {
	Products   []Product
	Total      int
	Page       int
	TotalPages int
}

// CategoryGroup holds products sharing a category name.
type CategoryGroup struct {
	Name     string
	Products []Product
}

// OthersGroup collects products without a category name.
const OthersGroup = "Others"

// GroupByCategory buckets products by category name in first-seen order.
func GroupByCategory(products []Product) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, p := range products {
		name := strings.TrimSpace(p.Category.Name)
		if name == "" {
			name = OthersGroup
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, CategoryGroup{Name: name})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}

// ProductInput is the admin create form.
type ProductInput struct {
	Title          string
	Brand          string
	Category       string
	Price          string
	DiscountPrice  string
	Description    string
	Specifications string
	Stock          string
	Warranty       string
	ShippingInfo   string
	ReturnPolicy   string
	Thumbnail      *backend.File
	Images         []backend.File
}

// Validate applies the required-field and image ceiling rules. A non-positive
// maxBytes uses DefaultImageMaxBytes.
func (in ProductInput) Validate(maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultImageMaxBytes
	}
	verr := &backend.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "Title is required")
	}
	if strings.TrimSpace(in.Brand) == "" {
		verr.Add("brand", "Brand is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil || price.IsNegative() {
		verr.Add("price", "Enter a valid price")
	}
	if d := strings.TrimSpace(in.DiscountPrice); d != "" {
		discount, err := decimal.NewFromString(d)
		switch {
		case err != nil || discount.IsNegative():
			verr.Add("discountPrice", "Enter a valid discount price")
		case verr.Fields["price"] == "" && discount.GreaterThan(price):
			verr.Add("discountPrice", "Discount price cannot exceed price")
		}
	}
	if s := strings.TrimSpace(in.Stock); s != "" {
		if n, err := strconv.Atoi(s); err != nil || n < 0 {
			verr.Add("stock", "Stock must be a whole number")
		}
	}
	switch {
	case in.Thumbnail == nil || in.Thumbnail.Size() == 0:
		verr.Add("thumbnail", "Thumbnail is required")
	case in.Thumbnail.Size() > maxBytes:
		verr.Add("thumbnail", fmt.Sprintf("Thumbnail must be less than %s", sizeLabel(maxBytes)))
	}
	for _, img := range in.Images {
		if img.Size() > maxBytes {
			verr.Add("images", fmt.Sprintf("Each image must be less than %s", sizeLabel(maxBytes)))
			break
		}
	}
	return verr.OrNil()
}

func (in ProductInput) form() *backend.Form {
	f := backend.NewForm().
		Set("title", strings.TrimSpace(in.Title)).
		Set("brand", strings.TrimSpace(in.Brand)).
		Set("category", strings.TrimSpace(in.Category)).
		Set("price", strings.TrimSpace(in.Price)).
		Set("discountPrice", strings.TrimSpace(in.DiscountPrice)).
		Set("description", in.Description).
		Set("specifications", in.Specifications).
		Set("stock", strings.TrimSpace(in.Stock)).
		Set("warranty", in.Warranty).
		Set("shippingInfo", in.ShippingInfo).
		Set("returnPolicy", in.ReturnPolicy)
	if in.Thumbnail != nil {
		thumb := *in.Thumbnail
		thumb.Field = "thumbnail"
		f.AddFile(thumb)
	}
	for _, img := range in.Images {
		img.Field = "images"
		f.AddFile(img)
	}
	return f
}

func sizeLabel(bytes int64) string {
	if bytes%1024 == 0 {
		return fmt.Sprintf("%d KB", bytes/1024)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// ReviewInput is the rating form on the product page.
type ReviewInput struct {
	ProductID string
	Rating    int
	Comment   string
}

// Validate requires a rating between 1 and 5; the comment is optional.
func (in ReviewInput) Validate() error {
	if in.ProductID == "" {
		return backend.NewValidationError("productId", "Product is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return backend.NewValidationError("rating", "Please select a rating")
	}
	return nil
}
