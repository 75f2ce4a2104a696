package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// StaticService is an in-memory catalog for local development and tests.
type StaticService struct {
	mu         sync.Mutex
	products   []Product
	deleted    map[string]bool
	categories []Category
	brands     []Brand
	seq        int
	err        error
	uploads    []ProductInput
}

// NewStaticService seeds the catalog with the given data.
func NewStaticService(products []Product, categories []Category, brands []Brand) *StaticService {
	return &StaticService{
		products:   append([]Product(nil), products...),
		deleted:    make(map[string]bool),
		categories: append([]Category(nil), categories...),
		brands:     append([]Brand(nil), brands...),
	}
}

// NewSampleService returns a StaticService holding SampleCatalog.
func NewSampleService() *StaticService {
	products, categories, brands := SampleCatalog()
	return NewStaticService(products, categories, brands)
}

// SampleCatalog is the fixed development catalog.
func SampleCatalog() ([]Product, []Category, []Brand) {
	discount := decimal.NewFromInt(800)
	footwear := backend.Ref{ID: "c-footwear", Name: "Footwear", Slug: "footwear"}
	bags := backend.Ref{ID: "c-bags", Name: "Bags", Slug: "bags"}
	stride := backend.Ref{ID: "b-stride", Name: "Stride", Slug: "stride"}
	products := []Product{
		{
			ID: "p-shoe", Title: "Trail Runner", Slug: "trail-runner",
			Description: "Lightweight **trail** shoe.", Price: decimal.NewFromInt(1000), DiscountPrice: &discount,
			Stock: 12, Thumbnail: "/static/img/shoe.png", Images: []string{"/static/img/shoe-side.png"},
			Category: footwear, Brand: stride, IsActive: true,
			Reviews: []Review{{ID: "r1", Rating: 4}, {ID: "r2", Rating: 5}},
		},
		{
			ID: "p-bag", Title: "Canvas Tote", Slug: "canvas-tote", Price: decimal.NewFromInt(450),
			Stock: 30, Thumbnail: "/static/img/tote.png", Category: bags, IsActive: true,
		},
		{
			ID: "p-cap", Title: "Sun Cap", Slug: "sun-cap", Price: decimal.NewFromInt(250),
			Stock: 5, Thumbnail: "/static/img/cap.png", IsActive: true,
		},
	}
	categories := []Category{
		{ID: "c-footwear", Name: "Footwear", Slug: "footwear", IsActive: true, IsFeatured: true,
			SubCategories: []Category{{ID: "c-running", Name: "Running", Slug: "running", IsActive: true}}},
		{ID: "c-bags", Name: "Bags", Slug: "bags", IsActive: true, SortOrder: 1},
	}
	brands := []Brand{
		{ID: "b-stride", Name: "Stride", Slug: "stride", Website: "https://stride.example"},
	}
	return products, categories, brands
}

// FailWith makes every following call return err until cleared with nil.
func (s *StaticService) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Uploads returns the product forms accepted so far.
func (s *StaticService) Uploads() []ProductInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProductInput(nil), s.uploads...)
}

func (s *StaticService) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func requireAdmin(id session.Identity) error {
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	if !id.IsAdmin() {
		return &backend.HTTPError{Status: http.StatusForbidden, Message: "Admin access required"}
	}
	return nil
}

func (s *StaticService) ListProducts(_ context.Context, _ session.Identity, query ProductQuery) (ProductPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return ProductPage{}, s.err
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Size < 1 {
		query.Size = DefaultPageSize
	}
	search := strings.ToLower(strings.TrimSpace(query.Search))
	var matched []Product
	for _, p := range s.products {
		if s.deleted[p.ID] {
			continue
		}
		if query.Category != "" && p.Category.ID != query.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		matched = append(matched, p)
	}
	start := (query.Page - 1) * query.Size
	end := min(start+query.Size, len(matched))
	var page []Product
	if start < len(matched) {
		page = matched[start:end]
	}
	return ProductPage{
		Products:   page,
		Total:      len(matched),
		Page:       query.Page,
		TotalPages: backend.TotalPages(len(matched), query.Size),
	}, nil
}

func (s *StaticService) GetProduct(_ context.Context, _ session.Identity, productID string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == productID && !s.deleted[p.ID] {
			copied := p
			copied.Reviews = append([]Review(nil), p.Reviews...)
			return &copied, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *StaticService) CreateProduct(_ context.Context, id session.Identity, input ProductInput) error {
	if err := input.Validate(DefaultImageMaxBytes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	price, _ := decimal.NewFromString(strings.TrimSpace(input.Price))
	p := Product{
		ID:       s.nextID("p"),
		Title:    strings.TrimSpace(input.Title),
		Slug:     Slugify(input.Title),
		Price:    price,
		Brand:    s.brandRef(input.Brand),
		Category: s.categoryRef(input.Category),
		IsActive: true,
	}
	if d := strings.TrimSpace(input.DiscountPrice); d != "" {
		discount, _ := decimal.NewFromString(d)
		p.DiscountPrice = &discount
	}
	s.products = append(s.products, p)
	s.uploads = append(s.uploads, input)
	return nil
}

func (s *StaticService) brandRef(brandID string) backend.Ref {
	for _, b := range s.brands {
		if b.ID == brandID {
			return backend.Ref{ID: b.ID, Name: b.Name, Slug: b.Slug}
		}
	}
	return backend.Ref{ID: brandID}
}

func (s *StaticService) categoryRef(categoryID string) backend.Ref {
	for _, c := range s.categories {
		if c.ID == categoryID {
			return backend.Ref{ID: c.ID, Name: c.Name, Slug: c.Slug}
		}
	}
	return backend.Ref{ID: categoryID}
}

func (s *StaticService) DeleteProduct(_ context.Context, id session.Identity, productID string) error {
	return s.setDeleted(id, productID, true)
}

func (s *StaticService) RestoreProduct(_ context.Context, id session.Identity, productID string) error {
	return s.setDeleted(id, productID, false)
}

func (s *StaticService) setDeleted(id session.Identity, productID string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	for _, p := range s.products {
		if p.ID == productID {
			s.deleted[productID] = deleted
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *StaticService) ListDeletedProducts(_ context.Context, id session.Identity) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range s.products {
		if s.deleted[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *StaticService) AddReview(_ context.Context, id session.Identity, input ReviewInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	if s.err != nil {
		return s.err
	}
	for i := range s.products {
		p := &s.products[i]
		if p.ID != input.ProductID {
			continue
		}
		for _, r := range p.Reviews {
			if r.User.ID == id.UserID {
				return &backend.BusinessError{Message: "You already rated this product"}
			}
		}
		p.Reviews = append(p.Reviews, Review{
			ID:      s.nextID("r"),
			User:    backend.Ref{ID: id.UserID, Name: id.Name},
			Rating:  input.Rating,
			Comment: SanitizeComment(input.Comment),
		})
		return nil
	}
	return backend.ErrNotFound
}

func (s *StaticService) ListCategories(_ context.Context, _ session.Identity, query ListQuery) (CategoryPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return CategoryPage{}, s.err
	}
	query = query.normalize(adminCategoryPageSize)
	out := append([]Category(nil), s.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return CategoryPage{Categories: out, Total: len(out), Page: query.Page, TotalPages: backend.TotalPages(len(out), query.Size)}, nil
}

func (s *StaticService) GetCategory(_ context.Context, _ session.Identity, categoryID string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.ID == categoryID {
			copied := c
			return &copied, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *StaticService) CategoryTree(_ context.Context, _ session.Identity) ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]Category(nil), s.categories...), nil
}

func (s *StaticService) CreateCategory(_ context.Context, id session.Identity, input CategoryInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	for _, c := range s.categories {
		if c.Slug == input.Slug {
			return &backend.BusinessError{Message: "Category slug already exists"}
		}
	}
	u := input.update()
	s.categories = append(s.categories, Category{
		ID: s.nextID("c"), Name: u.Name, Slug: u.Slug, Description: u.Description,
		ParentCategory: backend.Ref{ID: input.ParentCategory},
		IsFeatured:     u.IsFeatured, SortOrder: u.SortOrder, IsActive: u.IsActive,
	})
	return nil
}

func (s *StaticService) UpdateCategory(_ context.Context, id session.Identity, categoryID string, input CategoryInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	for i := range s.categories {
		c := &s.categories[i]
		if c.ID != categoryID {
			continue
		}
		u := input.update()
		c.Name, c.Slug, c.Description, c.Image = u.Name, u.Slug, u.Description, u.Image
		c.IsFeatured, c.SortOrder, c.IsActive = u.IsFeatured, u.SortOrder, u.IsActive
		return nil
	}
	return backend.ErrNotFound
}

func (s *StaticService) DeleteCategory(_ context.Context, id session.Identity, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	for i, c := range s.categories {
		if c.ID == categoryID {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *StaticService) ListBrands(_ context.Context, _ session.Identity, query ListQuery) (BrandPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return BrandPage{}, s.err
	}
	query = query.normalize(adminBrandPageSize)
	out := append([]Brand(nil), s.brands...)
	return BrandPage{Brands: out, Total: len(out), Page: query.Page, TotalPages: backend.TotalPages(len(out), query.Size)}, nil
}

func (s *StaticService) GetBrand(_ context.Context, _ session.Identity, slug string) (*Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.brands {
		if b.Slug == slug || b.ID == slug {
			copied := b
			return &copied, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (s *StaticService) CreateBrand(_ context.Context, id session.Identity, input BrandInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	s.brands = append(s.brands, Brand{
		ID: s.nextID("b"), Name: input.Name, Slug: Slugify(input.Name),
		Description: input.Description, Website: input.Website,
	})
	return nil
}

func (s *StaticService) UpdateBrand(_ context.Context, id session.Identity, brandID string, input BrandInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	for i := range s.brands {
		b := &s.brands[i]
		if b.ID == brandID {
			b.Name, b.Description, b.Website = input.Name, input.Description, input.Website
			return nil
		}
	}
	return backend.ErrNotFound
}

func (s *StaticService) DeleteBrand(_ context.Context, id session.Identity, brandID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := requireAdmin(id); err != nil {
		return err
	}
	for i, b := range s.brands {
		if b.ID == brandID {
			s.brands = append(s.brands[:i], s.brands[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}
