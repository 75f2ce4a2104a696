package ui

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	"github.com/grindngainz15/fronted/internal/storefront/format"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
	"github.com/grindngainz15/fronted/internal/storefront/users"
)

// homeProductLimit bounds how many products the landing page groups.
const homeProductLimit = 60

// Home renders the category menu and the products grouped by category. The
// three reads run concurrently; a failed menu read only hides the menu.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	var (
		tree       []catalog.Category
		categories catalog.CategoryPage
		products   catalog.ProductPage
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		if tree, err = h.catalog.CategoryTree(ctx, id); err != nil {
			h.logFailure(r, "home: category tree failed", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = h.catalog.ListCategories(ctx, id, catalog.ListQuery{}); err != nil {
			h.logFailure(r, "home: categories failed", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = h.catalog.ListProducts(ctx, id, catalog.ProductQuery{Page: 1, Size: homeProductLimit})
		return err
	})
	err := g.Wait()
	if handleAuthError(w, r, err) {
		return
	}

	page := templates.HomePage{
		Chrome:     h.chrome(r, ""),
		Tree:       tree,
		Categories: categories.Categories,
		Groups:     catalog.GroupByCategory(products.Products),
	}
	if err != nil {
		h.logFailure(r, "home: products failed", err)
		page.LoadError = h.failureMessage(r, err, "catalog.load_failed")
	}
	h.render(w, r, "home", page)
}

// Products renders one filtered page of the catalog alongside the currency
// conversion rate.
func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	q := r.URL.Query()
	query := catalog.ProductQuery{
		Page:     atoiDefault(q.Get("page"), 1),
		Size:     catalog.DefaultPageSize,
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
	}

	var (
		result     catalog.ProductPage
		categories catalog.CategoryPage
		rate       float64
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		result, err = h.catalog.ListProducts(ctx, id, query)
		return err
	})
	g.Go(func() error {
		rate = h.rates.USDRate(ctx)
		return nil
	})
	g.Go(func() error {
		var err error
		if categories, err = h.catalog.ListCategories(ctx, id, catalog.ListQuery{}); err != nil {
			h.logFailure(r, "products: categories failed", err)
		}
		return nil
	})
	err := g.Wait()
	if handleAuthError(w, r, err) {
		return
	}

	chrome := h.chrome(r, "Products")
	chrome.Rate = rate
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		chrome.Currency = format.ParseCurrency(sess.Currency())
	}
	page := templates.ProductsPage{
		Chrome:     chrome,
		Products:   result.Products,
		Categories: categories.Categories,
		Page:       query.Page,
		TotalPages: result.TotalPages,
		Search:     query.Search,
		Category:   query.Category,
	}
	if err != nil {
		h.logFailure(r, "products: list failed", err)
		page.LoadError = h.failureMessage(r, err, "catalog.load_failed")
	}
	h.render(w, r, "products", page)
}

// SetCurrency stores the INR/USD display preference.
func (h *Handlers) SetCurrency(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.SetCurrency(string(format.ParseCurrency(r.FormValue("currency"))))
	}
	next := custommw.SafeNext(r.FormValue("next"))
	if next == "/" {
		next = "/products"
	}
	redirect(w, r, next)
}

// Product renders product detail with the quick-buy panel.
func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadProductPage(w, r)
	if !ok {
		return
	}
	h.render(w, r, "product", page)
}

func (h *Handlers) loadProductPage(w http.ResponseWriter, r *http.Request) (templates.ProductPage, bool) {
	productID := chi.URLParam(r, "productID")
	product, err := h.catalog.GetProduct(r.Context(), identity(r), productID)
	if err != nil {
		if handleAuthError(w, r, err) {
			return templates.ProductPage{}, false
		}
		if errors.Is(err, backend.ErrNotFound) {
			h.errorPage(w, r, http.StatusNotFound, h.t(r, "errors.not_found"))
			return templates.ProductPage{}, false
		}
		h.logFailure(r, "product: load failed", err)
		h.errorPage(w, r, http.StatusBadGateway, h.failureMessage(r, err, "catalog.load_failed"))
		return templates.ProductPage{}, false
	}
	page := templates.ProductPage{
		Chrome:   h.chrome(r, product.Title),
		Product:  *product,
		Payments: checkout.PaymentOptions,
	}
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		page.QuickBuy = h.quickBuy.Items(sess.ID())
		page.QuickTotal = cart.Sum(page.QuickBuy)
	}
	return page, true
}

// ToggleWishlist flips the wishlist state and re-renders the heart button.
func (h *Handlers) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	wishlisted, _ := strconv.ParseBool(r.FormValue("wishlisted"))

	next, err := users.ToggleWishlist(r.Context(), h.users, identity(r), productID, wishlisted)
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "wishlist: toggle failed", err)
		h.flash(r, session.FlashError, h.failureMessage(r, err, "catalog.wishlist_failed"))
		next = wishlisted
	} else if next {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.wishlist_added"))
	} else {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.wishlist_removed"))
	}

	if !custommw.IsHTMXRequest(r.Context()) {
		redirect(w, r, "/products/"+productID)
		return
	}
	card := h.chrome(r, "").Card(catalog.Product{ID: productID, IsWishlisted: next})
	h.fragment(w, r, "product", "wishlist-button", card)
}

// AddToCart puts one unit in the server cart and opens the cart.
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	updated, err := h.cart.Add(r.Context(), identity(r), productID, 1)
	if err != nil {
		if handleAuthError(w, r, err) {
			return
		}
		h.logFailure(r, "cart: add failed", err)
		h.flash(r, session.FlashError, h.failureMessage(r, err, "cart.add_failed"))
		redirect(w, r, "/products/"+productID)
		return
	}
	title := productID
	if item, ok := updated.Item(productID); ok && item.Product.Title != "" {
		title = item.Product.Title
	}
	h.flash(r, session.FlashSuccess, h.t(r, "cart.added", title))
	redirect(w, r, "/cart")
}

// QuickBuyAdd collects the product in the per-browser quick-buy basket.
func (h *Handlers) QuickBuyAdd(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadProductPage(w, r)
	if !ok {
		return
	}
	sess, _ := custommw.SessionFromContext(r.Context())
	p := page.Product
	page.QuickBuy = h.quickBuy.Add(sess.ID(), cart.Product{
		ID:            p.ID,
		Title:         p.Title,
		Price:         p.Price,
		DiscountPrice: p.DiscountPrice,
		Thumbnail:     p.Thumbnail,
		Brand:         p.Brand,
		Category:      p.Category,
	})
	page.QuickTotal = cart.Sum(page.QuickBuy)
	h.quickBuyResponse(w, r, page)
}

// QuickBuyPay acknowledges the quick-buy basket with the chosen payment method
// and empties it. No payment is taken.
func (h *Handlers) QuickBuyPay(w http.ResponseWriter, r *http.Request) {
	page, ok := h.loadProductPage(w, r)
	if !ok {
		return
	}
	sess, _ := custommw.SessionFromContext(r.Context())
	method, err := checkout.ParsePaymentMethod(r.FormValue("payment"))
	switch {
	case err != nil:
		sess.AddFlash(session.FlashError, backend.UserMessage(err, h.t(r, "errors.generic")))
	case len(page.QuickBuy) > 0:
		sess.AddFlash(session.FlashSuccess, h.t(r, "catalog.buy_now_paid", page.INR(page.QuickTotal.Price), method.Label()))
		h.quickBuy.Clear(sess.ID())
		page.QuickBuy = nil
		page.QuickTotal = cart.Totals{}
	}
	page.Chrome.Flashes = append(page.Chrome.Flashes, sess.PopFlashes()...)
	h.quickBuyResponse(w, r, page)
}

func (h *Handlers) quickBuyResponse(w http.ResponseWriter, r *http.Request, page templates.ProductPage) {
	if custommw.IsHTMXRequest(r.Context()) {
		h.fragment(w, r, "product", "quick-buy", page)
		return
	}
	h.requeue(r, page.Flashes)
	redirect(w, r, "/products/"+page.Product.ID)
}

// AddReview posts a rating; the comment is optional.
func (h *Handlers) AddReview(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	rating, _ := strconv.Atoi(r.FormValue("rating"))
	input := catalog.ReviewInput{ProductID: productID, Rating: rating, Comment: r.FormValue("comment")}

	err := h.catalog.AddReview(r.Context(), identity(r), input)
	if err == nil {
		h.flash(r, session.FlashSuccess, h.t(r, "catalog.review_added"))
		redirect(w, r, "/products/"+productID)
		return
	}
	if handleAuthError(w, r, err) {
		return
	}
	h.logFailure(r, "review: add failed", err)

	page, ok := h.loadProductPage(w, r)
	if !ok {
		return
	}
	page.ReviewError = h.failureMessage(r, err, "catalog.review_failed")
	h.renderStatus(w, r, http.StatusUnprocessableEntity, "product", page)
}

func atoiDefault(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
