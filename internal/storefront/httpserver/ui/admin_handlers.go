package ui

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
	"github.com/grindngainz15/fronted/internal/storefront/users"
)

// adminFailure applies the 401 policy, then logs and flashes err. It reports
// whether the response was already written.
func (h *Handlers) adminFailure(w http.ResponseWriter, r *http.Request, err error, msg, fallbackKey string) bool {
	if handleAuthError(w, r, err) {
		return true
	}
	h.logFailure(r, msg, err)
	h.flash(r, session.FlashError, h.failureMessage(r, err, fallbackKey))
	return false
}

func (h *Handlers) confirm(w http.ResponseWriter, r *http.Request, heading, message, action, cancel string) {
	h.render(w, r, "confirm", templates.ConfirmPage{
		Chrome:  h.chrome(r, heading),
		Heading: heading,
		Message: message,
		Action:  action,
		Cancel:  cancel,
	})
}

// Categories

func (h *Handlers) categoriesPage(r *http.Request, form catalog.CategoryInput) (templates.CategoriesPage, error) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	result, err := h.catalog.ListCategories(r.Context(), identity(r), catalog.ListQuery{Search: search})
	return templates.CategoriesPage{
		Chrome:     h.chrome(r, "Categories"),
		Categories: result.Categories,
		Search:     search,
		Form:       form,
	}, err
}

// AdminCategories lists categories with the create form, or the edit form for ?edit=id.
func (h *Handlers) AdminCategories(w http.ResponseWriter, r *http.Request) {
	form := catalog.CategoryInput{IsActive: true, SortOrder: "0"}
	editID := strings.TrimSpace(r.URL.Query().Get("edit"))
	if editID != "" {
		category, err := h.catalog.GetCategory(r.Context(), identity(r), editID)
		switch {
		case err == nil:
			form = catalog.InputFromCategory(*category)
		case h.adminFailure(w, r, err, "admin: load category failed", "errors.not_found"):
			return
		default:
			editID = ""
		}
	}
	page, err := h.categoriesPage(r, form)
	if err != nil && h.adminFailure(w, r, err, "admin: list categories failed", "catalog.load_failed") {
		return
	}
	page.EditID = editID
	h.render(w, r, "admin_categories", page)
}

func categoryFromForm(r *http.Request) catalog.CategoryInput {
	return catalog.CategoryInput{
		Name:           r.FormValue("name"),
		Slug:           r.FormValue("slug"),
		Description:    r.FormValue("description"),
		ParentCategory: r.FormValue("parentCategory"),
		IsFeatured:     r.FormValue("isFeatured") != "",
		SortOrder:      r.FormValue("sortOrder"),
		IsActive:       r.FormValue("isActive") != "",
		ImageURL:       r.FormValue("imageUrl"),
	}
}

// CreateCategory posts a new category with an optional image.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errorPage(w, r, http.StatusBadRequest, h.t(r, "errors.generic"))
		return
	}
	input := categoryFromForm(r)
	image, err := uploadedFile(r, "image")
	if err == nil {
		input.Image = image
		err = h.catalog.CreateCategory(r.Context(), identity(r), input)
	}
	if err != nil {
		h.categoryFormFailure(w, r, err, "", input)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "catalog.category_created"))
	redirect(w, r, "/admin/categories")
}

// UpdateCategory saves the edited fields.
func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errorPage(w, r, http.StatusBadRequest, h.t(r, "errors.generic"))
		return
	}
	categoryID := chi.URLParam(r, "categoryID")
	input := categoryFromForm(r)
	if err := h.catalog.UpdateCategory(r.Context(), identity(r), categoryID, input); err != nil {
		h.categoryFormFailure(w, r, err, categoryID, input)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "catalog.category_updated"))
	redirect(w, r, "/admin/categories")
}

func (h *Handlers) categoryFormFailure(w http.ResponseWriter, r *http.Request, err error, editID string, input catalog.CategoryInput) {
	if handleAuthError(w, r, err) {
		return
	}
	h.logFailure(r, "admin: save category failed", err)
	page, listErr := h.categoriesPage(r, input)
	if handleAuthError(w, r, listErr) {
		return
	}
	page.EditID = editID
	page.Errors = fieldErrors(err)
	if page.Errors == nil {
		page.Errors = map[string]string{"form": h.failureMessage(r, err, "catalog.create_failed")}
	}
	h.renderStatus(w, r, http.StatusUnprocessableEntity, "admin_categories", page)
}

// ConfirmDeleteCategory is the no-script confirmation step.
func (h *Handlers) ConfirmDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	h.confirm(w, r, "Delete category", "Delete this category?", "/admin/categories/"+categoryID+"/delete", "/admin/categories")
}

// DeleteCategory removes a category and returns to the list.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteCategory(r.Context(), identity(r), chi.URLParam(r, "categoryID"))
	if err != nil {
		if h.adminFailure(w, r, err, "admin: delete category failed", "catalog.delete_failed") {
			return
		}
	} else {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.category_deleted"))
	}
	redirect(w, r, "/admin/categories")
}

// Brands

func (h *Handlers) brandsPage(r *http.Request, form catalog.BrandInput) (templates.BrandsPage, error) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	result, err := h.catalog.ListBrands(r.Context(), identity(r), catalog.ListQuery{Search: search})
	return templates.BrandsPage{
		Chrome: h.chrome(r, "Brands"),
		Brands: result.Brands,
		Search: search,
		Form:   form,
	}, err
}

// AdminBrands lists brands with the create form, or the edit form for ?edit=slug.
func (h *Handlers) AdminBrands(w http.ResponseWriter, r *http.Request) {
	var (
		form    catalog.BrandInput
		editID  string
		editKey = strings.TrimSpace(r.URL.Query().Get("edit"))
	)
	if editKey != "" {
		brand, err := h.catalog.GetBrand(r.Context(), identity(r), editKey)
		switch {
		case err == nil:
			form, editID = catalog.InputFromBrand(*brand), brand.ID
		case h.adminFailure(w, r, err, "admin: load brand failed", "errors.not_found"):
			return
		default:
			editKey = ""
		}
	}
	page, err := h.brandsPage(r, form)
	if err != nil && h.adminFailure(w, r, err, "admin: list brands failed", "catalog.load_failed") {
		return
	}
	page.EditID, page.EditKey = editID, editKey
	h.render(w, r, "admin_brands", page)
}

func (h *Handlers) brandFromForm(r *http.Request) (catalog.BrandInput, error) {
	input := catalog.BrandInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Website:     r.FormValue("website"),
	}
	logo, err := uploadedFile(r, "logo")
	input.Logo = logo
	return input, err
}

// CreateBrand posts a new brand with an optional logo.
func (h *Handlers) CreateBrand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errorPage(w, r, http.StatusBadRequest, h.t(r, "errors.generic"))
		return
	}
	input, err := h.brandFromForm(r)
	if err == nil {
		err = h.catalog.CreateBrand(r.Context(), identity(r), input)
	}
	if err != nil {
		h.brandFormFailure(w, r, err, "", input)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "catalog.brand_created"))
	redirect(w, r, "/admin/brands")
}

// UpdateBrand saves the edited brand.
func (h *Handlers) UpdateBrand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errorPage(w, r, http.StatusBadRequest, h.t(r, "errors.generic"))
		return
	}
	brandID := chi.URLParam(r, "brandID")
	input, err := h.brandFromForm(r)
	if err == nil {
		err = h.catalog.UpdateBrand(r.Context(), identity(r), brandID, input)
	}
	if err != nil {
		h.brandFormFailure(w, r, err, brandID, input)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "catalog.brand_updated"))
	redirect(w, r, "/admin/brands")
}

func (h *Handlers) brandFormFailure(w http.ResponseWriter, r *http.Request, err error, editID string, input catalog.BrandInput) {
	if handleAuthError(w, r, err) {
		return
	}
	h.logFailure(r, "admin: save brand failed", err)
	page, listErr := h.brandsPage(r, input)
	if handleAuthError(w, r, listErr) {
		return
	}
	page.EditID, page.EditKey = editID, editID
	page.Errors = fieldErrors(err)
	if page.Errors == nil {
		page.Errors = map[string]string{"form": h.failureMessage(r, err, "catalog.create_failed")}
	}
	h.renderStatus(w, r, http.StatusUnprocessableEntity, "admin_brands", page)
}

// ConfirmDeleteBrand is the no-script confirmation step.
func (h *Handlers) ConfirmDeleteBrand(w http.ResponseWriter, r *http.Request) {
	brandID := chi.URLParam(r, "brandID")
	h.confirm(w, r, "Delete brand", "Delete this brand?", "/admin/brands/"+brandID+"/delete", "/admin/brands")
}

// DeleteBrand removes a brand.
func (h *Handlers) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteBrand(r.Context(), identity(r), chi.URLParam(r, "brandID"))
	if err != nil {
		if h.adminFailure(w, r, err, "admin: delete brand failed", "catalog.delete_failed") {
			return
		}
	} else {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.brand_deleted"))
	}
	redirect(w, r, "/admin/brands")
}

// Products

// productFormPage loads the brand and category pickers concurrently.
func (h *Handlers) productFormPage(r *http.Request, form catalog.ProductInput) (templates.ProductFormPage, error) {
	id := identity(r)
	page := templates.ProductFormPage{
		Chrome: h.chrome(r, "Add Product"),
		Form:   form,
		MaxKB:  h.imageMaxBytes / 1024,
	}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		result, err := h.catalog.ListCategories(ctx, id, catalog.ListQuery{})
		page.Categories = result.Categories
		return err
	})
	g.Go(func() error {
		result, err := h.catalog.ListBrands(ctx, id, catalog.ListQuery{})
		page.Brands = result.Brands
		return err
	})
	return page, g.Wait()
}

// NewProduct renders the create form.
func (h *Handlers) NewProduct(w http.ResponseWriter, r *http.Request) {
	page, err := h.productFormPage(r, catalog.ProductInput{Stock: "0"})
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "admin: product pickers failed", err)
		page.Errors = map[string]string{"form": h.failureMessage(r, err, "catalog.load_failed")}
	}
	h.render(w, r, "admin_product_form", page)
}

// CreateProduct validates the form and image sizes, then posts the product.
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.errorPage(w, r, http.StatusBadRequest, h.t(r, "errors.generic"))
		return
	}
	input := catalog.ProductInput{
		Title:          r.FormValue("title"),
		Brand:          r.FormValue("brand"),
		Category:       r.FormValue("category"),
		Price:          r.FormValue("price"),
		DiscountPrice:  r.FormValue("discountPrice"),
		Description:    r.FormValue("description"),
		Specifications: r.FormValue("specifications"),
		Stock:          r.FormValue("stock"),
		Warranty:       r.FormValue("warranty"),
		ShippingInfo:   r.FormValue("shippingInfo"),
		ReturnPolicy:   r.FormValue("returnPolicy"),
	}
	thumb, err := uploadedFile(r, "thumbnail")
	var images []backend.File
	if err == nil {
		input.Thumbnail = thumb
		images, err = uploadedFiles(r, "images")
	}
	if err == nil {
		input.Images = images
		if err = input.Validate(h.imageMaxBytes); err == nil {
			err = h.catalog.CreateProduct(r.Context(), identity(r), input)
		}
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "admin: create product failed", err)
		input.Thumbnail, input.Images = nil, nil
		page, listErr := h.productFormPage(r, input)
		if handleAuthError(w, r, listErr) {
			return
		}
		page.Errors = fieldErrors(err)
		if page.Errors == nil {
			page.Errors = map[string]string{"form": h.failureMessage(r, err, "catalog.create_failed")}
		}
		h.renderStatus(w, r, http.StatusUnprocessableEntity, "admin_product_form", page)
		return
	}
	h.flash(r, session.FlashSuccess, h.t(r, "catalog.product_created"))
	redirect(w, r, "/products")
}

// ConfirmDeleteProduct is the no-script confirmation step.
func (h *Handlers) ConfirmDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	h.confirm(w, r, "Delete product", "Delete this product? It can be restored later.", "/admin/products/"+productID+"/delete", "/products")
}

// DeleteProduct soft-deletes a product and re-fetches the grid.
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.DeleteProduct(r.Context(), identity(r), chi.URLParam(r, "productID"))
	if err != nil {
		if h.adminFailure(w, r, err, "admin: delete product failed", "catalog.delete_failed") {
			return
		}
	} else {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.product_deleted"))
	}
	redirect(w, r, "/products")
}

// DeletedProducts lists soft-deleted products.
func (h *Handlers) DeletedProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.catalog.ListDeletedProducts(r.Context(), identity(r))
	page := templates.DeletedProductsPage{Chrome: h.chrome(r, "Restore Products"), Products: list}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "admin: deleted products failed", err)
		page.LoadError = h.failureMessage(r, err, "catalog.load_failed")
	}
	h.render(w, r, "admin_deleted", page)
}

// RestoreProduct brings a product back into the catalog.
func (h *Handlers) RestoreProduct(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.RestoreProduct(r.Context(), identity(r), chi.URLParam(r, "productID"))
	if err != nil {
		if h.adminFailure(w, r, err, "admin: restore product failed", "catalog.restore_failed") {
			return
		}
	} else {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.product_restored"))
	}
	redirect(w, r, "/admin/products/deleted")
}

// Users

// AdminUsers renders the paged user directory.
func (h *Handlers) AdminUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := users.Query{
		Page:   atoiDefault(q.Get("page"), 1),
		Size:   users.DefaultPageSize,
		Search: strings.TrimSpace(q.Get("search")),
	}
	result, err := h.users.List(r.Context(), identity(r), query)
	page := templates.UsersPage{
		Chrome:     h.chrome(r, "Users"),
		Users:      result.Users,
		Search:     query.Search,
		Page:       query.Page,
		TotalPages: backend.TotalPages(result.Total, query.Size),
	}
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "admin: users failed", err)
		page.LoadError = h.failureMessage(r, err, "users.load_failed")
	}
	h.render(w, r, "admin_users", page)
}

// uploadedFile reads one optional file part into memory.
func uploadedFile(r *http.Request, field string) (*backend.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	f, err := readPart(field, headers[0])
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func uploadedFiles(r *http.Request, field string) ([]backend.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []backend.File
	for _, header := range r.MultipartForm.File[field] {
		f, err := readPart(field, header)
		if err != nil {
			return nil, err
		}
		if f.Size() > 0 {
			out = append(out, f)
		}
	}
	return out, nil
}

func readPart(field string, header *multipart.FileHeader) (backend.File, error) {
	src, err := header.Open()
	if err != nil {
		return backend.File{}, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return backend.File{}, err
	}
	return backend.File{
		Field:       field,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
