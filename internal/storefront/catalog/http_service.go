package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

const (
	adminCategoryPageSize = 100
	adminBrandPageSize    = 50
)

// HTTPService implements Service against the catalog endpoints.
type HTTPService struct {
	client        *backend.Client
	imageMaxBytes int64
}

// NewHTTPService constructs a Service backed by the shared backend client.
// imageMaxBytes caps each product upload; zero uses DefaultImageMaxBytes.
func NewHTTPService(client *backend.Client, imageMaxBytes int64) *HTTPService {
	if imageMaxBytes <= 0 {
		imageMaxBytes = DefaultImageMaxBytes
	}
	return &HTTPService{client: client, imageMaxBytes: imageMaxBytes}
}

type idBody struct {
	ID string `json:"id"`
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

// ListProducts posts the page, size and optional filters to /products/list.
func (s *HTTPService) ListProducts(ctx context.Context, id session.Identity, query ProductQuery) (ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Size < 1 {
		query.Size = DefaultPageSize
	}
	var resp backend.Page[Product]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/products/list",
		Token:  id.Token,
		JSON: backend.ListParams{
			Page:     query.Page,
			Size:     query.Size,
			Search:   strings.TrimSpace(query.Search),
			Category: query.Category,
		},
	}, &resp)
	if err != nil {
		return ProductPage{}, err
	}
	total := resp.Total()
	return ProductPage{
		Products:   resp.Data,
		Total:      total,
		Page:       query.Page,
		TotalPages: backend.TotalPages(total, query.Size),
	}, nil
}

// GetProduct reads /products/{id}; this endpoint carries the document under "message".
func (s *HTTPService) GetProduct(ctx context.Context, id session.Identity, productID string) (*Product, error) {
	if !backend.ValidID(productID) {
		return nil, backend.ErrNotFound
	}
	var resp struct {
		Message json.RawMessage `json:"message"`
		Data    *Product        `json:"data"`
	}
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodGet,
		Path:   "/products/" + productID,
		Token:  id.Token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	product := resp.Data
	if len(resp.Message) > 0 && resp.Message[0] == '{' {
		product = &Product{}
		if err := json.Unmarshal(resp.Message, product); err != nil {
			return nil, fmt.Errorf("catalog: decode product: %w", err)
		}
	}
	if product == nil || product.ID == "" {
		return nil, backend.ErrNotFound
	}
	return product, nil
}

// CreateProduct validates the form and uploads it as multipart.
func (s *HTTPService) CreateProduct(ctx context.Context, id session.Identity, input ProductInput) error {
	if err := input.Validate(s.imageMaxBytes); err != nil {
		return err
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/products/create",
		Token:  id.Token,
		Form:   input.form(),
	}, nil)
}

// DeleteProduct soft-deletes a product.
func (s *HTTPService) DeleteProduct(ctx context.Context, id session.Identity, productID string) error {
	return s.postID(ctx, id, "/products/delete", productID)
}

// ListDeletedProducts returns soft-deleted products for the restore screen.
func (s *HTTPService) ListDeletedProducts(ctx context.Context, id session.Identity) ([]Product, error) {
	var resp dataResponse[[]Product]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/products/deleted",
		Token:  id.Token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// RestoreProduct undoes a soft delete.
func (s *HTTPService) RestoreProduct(ctx context.Context, id session.Identity, productID string) error {
	return s.postID(ctx, id, "/products/restore", productID)
}

// AddReview posts a rating with an optional plain-text comment.
func (s *HTTPService) AddReview(ctx context.Context, id session.Identity, input ReviewInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	if !id.Authenticated() {
		return backend.ErrUnauthorized
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/reviews/add",
		Token:  id.Token,
		JSON: struct {
			ProductID string `json:"productId"`
			Rating    int    `json:"rating"`
			Comment   string `json:"comment"`
		}{input.ProductID, input.Rating, SanitizeComment(input.Comment)},
	}, nil)
}

// ListCategories reads one page of categories.
func (s *HTTPService) ListCategories(ctx context.Context, id session.Identity, query ListQuery) (CategoryPage, error) {
	query = query.normalize(adminCategoryPageSize)
	var resp backend.Page[Category]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/categories/list",
		Token:  id.Token,
		JSON:   backend.ListParams{Page: query.Page, Size: query.Size, Search: strings.TrimSpace(query.Search)},
	}, &resp)
	if err != nil {
		return CategoryPage{}, err
	}
	total := resp.Total()
	return CategoryPage{
		Categories: resp.Data,
		Total:      total,
		Page:       query.Page,
		TotalPages: backend.TotalPages(total, query.Size),
	}, nil
}

// GetCategory reads one category for the edit form.
func (s *HTTPService) GetCategory(ctx context.Context, id session.Identity, categoryID string) (*Category, error) {
	if !backend.ValidID(categoryID) {
		return nil, backend.ErrNotFound
	}
	var resp dataResponse[*Category]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodGet,
		Path:   "/categories/" + categoryID,
		Token:  id.Token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ID == "" {
		return nil, backend.ErrNotFound
	}
	return resp.Data, nil
}

// CategoryTree returns top-level categories with their children.
func (s *HTTPService) CategoryTree(ctx context.Context, id session.Identity) ([]Category, error) {
	var resp dataResponse[[]Category]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodGet,
		Path:   "/categories/with-subcategories",
		Token:  id.Token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateCategory uploads a new category as multipart.
func (s *HTTPService) CreateCategory(ctx context.Context, id session.Identity, input CategoryInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/categories/create",
		Token:  id.Token,
		Form:   input.form(),
	}, nil)
}

// UpdateCategory sends {id, update} with a numeric sort order.
func (s *HTTPService) UpdateCategory(ctx context.Context, id session.Identity, categoryID string, input CategoryInput) error {
	if !backend.ValidID(categoryID) {
		return backend.ErrNotFound
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/categories/update",
		Token:  id.Token,
		JSON: struct {
			ID     string         `json:"id"`
			Update categoryUpdate `json:"update"`
		}{categoryID, input.update()},
	}, nil)
}

// DeleteCategory removes a category.
func (s *HTTPService) DeleteCategory(ctx context.Context, id session.Identity, categoryID string) error {
	return s.postID(ctx, id, "/categories/delete", categoryID)
}

// ListBrands reads one page of brands.
func (s *HTTPService) ListBrands(ctx context.Context, id session.Identity, query ListQuery) (BrandPage, error) {
	query = query.normalize(adminBrandPageSize)
	var resp backend.Page[Brand]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/brands/list",
		Token:  id.Token,
		JSON:   backend.ListParams{Page: query.Page, Size: query.Size, Search: strings.TrimSpace(query.Search)},
	}, &resp)
	if err != nil {
		return BrandPage{}, err
	}
	total := resp.Total()
	return BrandPage{
		Brands:     resp.Data,
		Total:      total,
		Page:       query.Page,
		TotalPages: backend.TotalPages(total, query.Size),
	}, nil
}

// GetBrand reads a brand by slug.
func (s *HTTPService) GetBrand(ctx context.Context, id session.Identity, slug string) (*Brand, error) {
	if !backend.ValidID(slug) {
		return nil, backend.ErrNotFound
	}
	var resp dataResponse[*Brand]
	err := s.client.Do(ctx, backend.Call{
		Method: http.MethodGet,
		Path:   "/brands/" + slug,
		Token:  id.Token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ID == "" {
		return nil, backend.ErrNotFound
	}
	return resp.Data, nil
}

// CreateBrand uploads name, description, website and an optional logo.
func (s *HTTPService) CreateBrand(ctx context.Context, id session.Identity, input BrandInput) error {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/brands/create",
		Token:  id.Token,
		Form:   input.createForm(),
	}, nil)
}

// UpdateBrand sends the id plus the changed fields as a JSON string field named update.
func (s *HTTPService) UpdateBrand(ctx context.Context, id session.Identity, brandID string, input BrandInput) error {
	if !backend.ValidID(brandID) {
		return backend.ErrNotFound
	}
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return err
	}
	update, err := json.Marshal(brandUpdate{Name: input.Name, Description: input.Description, Website: input.Website})
	if err != nil {
		return fmt.Errorf("catalog: encode brand update: %w", err)
	}
	form := backend.NewForm().Set("id", brandID).Set("update", string(update))
	input.attachLogo(form)
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   "/brands/update",
		Token:  id.Token,
		Form:   form,
	}, nil)
}

// DeleteBrand removes a brand by id.
func (s *HTTPService) DeleteBrand(ctx context.Context, id session.Identity, brandID string) error {
	if !backend.ValidID(brandID) {
		return backend.ErrNotFound
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodDelete,
		Path:   "/brands/delete/" + brandID,
		Token:  id.Token,
	}, nil)
}

func (s *HTTPService) postID(ctx context.Context, id session.Identity, path, targetID string) error {
	if strings.TrimSpace(targetID) == "" {
		return backend.NewValidationError("id", "Missing id")
	}
	return s.client.Do(ctx, backend.Call{
		Method: http.MethodPost,
		Path:   path,
		Token:  id.Token,
		JSON:   idBody{ID: targetID},
	}, nil)
}
