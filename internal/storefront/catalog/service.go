// Package catalog covers products, categories, brands and reviews: the
// storefront's browse pages and the admin console's CRUD screens.
package catalog

import (
	"context"

	"github.com/grindngainz15/fronted/internal/storefront/session"
)

// DefaultPageSize is the number of products on one products page.
const DefaultPageSize = 9

// Products exposes product reads and admin mutations.
type Products interface {
	ListProducts(ctx context.Context, id session.Identity, query ProductQuery) (ProductPage, error)
	GetProduct(ctx context.Context, id session.Identity, productID string) (*Product, error)
	CreateProduct(ctx context.Context, id session.Identity, input ProductInput) error
	DeleteProduct(ctx context.Context, id session.Identity, productID string) error
	ListDeletedProducts(ctx context.Context, id session.Identity) ([]Product, error)
	RestoreProduct(ctx context.Context, id session.Identity, productID string) error
	AddReview(ctx context.Context, id session.Identity, input ReviewInput) error
}

// Categories exposes category reads and admin mutations.
type Categories interface {
	ListCategories(ctx context.Context, id session.Identity, query ListQuery) (CategoryPage, error)
	GetCategory(ctx context.Context, id session.Identity, categoryID string) (*Category, error)
	CategoryTree(ctx context.Context, id session.Identity) ([]Category, error)
	CreateCategory(ctx context.Context, id session.Identity, input CategoryInput) error
	UpdateCategory(ctx context.Context, id session.Identity, categoryID string, input CategoryInput) error
	DeleteCategory(ctx context.Context, id session.Identity, categoryID string) error
}

// Brands exposes brand reads and admin mutations.
type Brands interface {
	ListBrands(ctx context.Context, id session.Identity, query ListQuery) (BrandPage, error)
	GetBrand(ctx context.Context, id session.Identity, slug string) (*Brand, error)
	CreateBrand(ctx context.Context, id session.Identity, input BrandInput) error
	UpdateBrand(ctx context.Context, id session.Identity, brandID string, input BrandInput) error
	DeleteBrand(ctx context.Context, id session.Identity, brandID string) error
}

// Service is the full catalog surface.
type Service interface {
	Products
	Categories
	Brands
}

// ListQuery is the shared list filter for admin tables.
type ListQuery struct {
	Page   int
	Size   int
	Search string
}

func (q ListQuery) normalize(defaultSize int) ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = defaultSize
	}
	return q
}
