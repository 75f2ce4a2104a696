package templates

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	"github.com/grindngainz15/fronted/internal/storefront/format"
	"github.com/grindngainz15/fronted/internal/storefront/messages"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/rbac"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/users"
)

// NavItem is one entry of the top navigation.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

type navEntry struct {
	key        string
	href       string
	capability rbac.Capability
	admin      bool
}

var navEntries = []navEntry{
	{key: "nav.home", href: "/"},
	{key: "nav.products", href: "/products", capability: rbac.CapCatalogBrowse},
	{key: "nav.categories", href: "/admin/categories", capability: rbac.CapCategories, admin: true},
	{key: "nav.brands", href: "/admin/brands", capability: rbac.CapBrands, admin: true},
	{key: "nav.restore", href: "/admin/products/deleted", capability: rbac.CapProductsRestore, admin: true},
	{key: "nav.users", href: "/admin/users", capability: rbac.CapUsersView, admin: true},
	{key: "nav.cart", href: "/cart", capability: rbac.CapCartUse},
	{key: "nav.orders", href: "/orders", capability: rbac.CapOrdersOwn},
	{key: "nav.profile", href: "/profile", capability: rbac.CapProfileSelf},
}

// Chrome is the per-request layout state every page embeds. Its methods are
// callable from templates as {{$.T "key"}} and {{$.Price .Amount}}.
type Chrome struct {
	Title       string
	Lang        string
	Path        string
	Environment string
	CSRFToken   string
	Identity    session.Identity
	Flashes     []session.Flash
	Currency    format.Currency
	Rate        float64

	messages  *messages.Bundle
	formatter format.Formatter
}

// NewChrome builds the layout state.
func NewChrome(bundle *messages.Bundle, formatter format.Formatter) Chrome {
	return Chrome{Lang: messages.Fallback, Currency: format.INR, Rate: catalog.DefaultUSDRate, messages: bundle, formatter: formatter}
}

// T looks a message up in the request language.
func (c Chrome) T(key string, args ...any) string {
	if c.messages == nil {
		return key
	}
	return c.messages.T(c.Lang, key, args...)
}

// Price renders a rupee amount in the shopper's chosen currency.
func (c Chrome) Price(amount decimal.Decimal) string {
	return c.formatter.Price(amount, c.Currency, c.Rate)
}

// INR renders a rupee amount regardless of the currency toggle.
func (c Chrome) INR(amount decimal.Decimal) string {
	return c.formatter.INR(amount)
}

// Can reports whether the signed-in role holds capability.
func (c Chrome) Can(capability string) bool {
	return c.Identity.Authenticated() && rbac.HasCapability(c.Identity.Role, rbac.Capability(capability))
}

// Nav lists the entries visible to the current role. Anonymous visitors see
// the public pages only.
func (c Chrome) Nav() []NavItem {
	out := make([]NavItem, 0, len(navEntries))
	for _, e := range navEntries {
		if e.admin && !c.Identity.IsAdmin() {
			continue
		}
		if e.capability != "" && e.capability != rbac.CapCatalogBrowse {
			if !c.Identity.Authenticated() || !rbac.HasCapability(c.Identity.Role, e.capability) {
				continue
			}
		}
		out = append(out, NavItem{Label: c.T(e.key), Href: e.href, Active: c.Path == e.href})
	}
	return out
}

// HomePage is the landing page.
type HomePage struct {
	Chrome
	Tree       []catalog.Category
	Categories []catalog.Category
	Groups     []catalog.CategoryGroup
	LoadError  string
}

// ProductsPage is the paged catalog with filters.
type ProductsPage struct {
	Chrome
	Products   []catalog.Product
	Categories []catalog.Category
	Page       int
	TotalPages int
	Search     string
	Category   string
	LoadError  string
}

// PageQuery renders the query string for page n keeping the filters.
func (p ProductsPage) PageQuery(n int) string {
	return pageQuery(n, map[string]string{"search": p.Search, "category": p.Category})
}

// ProductPage is product detail.
type ProductPage struct {
	Chrome
	Product     catalog.Product
	QuickBuy    []cart.Item
	QuickTotal  cart.Totals
	Payments    []checkout.PaymentOption
	ReviewError string
}

// CartPage is the server cart.
type CartPage struct {
	Chrome
	Cart   *cart.Cart
	Totals cart.Totals
}

// CheckoutPage is address and payment selection.
type CheckoutPage struct {
	Chrome
	Draft      checkout.Draft
	Addresses  []profile.Address
	Payments   []checkout.PaymentOption
	NewAddress profile.Address
	Errors     map[string]string
}

// OrdersPage lists the shopper's orders.
type OrdersPage struct {
	Chrome
	Orders    []orders.Order
	LoadError string
}

// OrderPage is order detail with the cancel and return actions.
type OrderPage struct {
	Chrome
	Order   *orders.Order
	Reasons []string
	Reason  string
	Other   string
	Error   string
}

// ProfilePage is the profile form and address book.
type ProfilePage struct {
	Chrome
	Profile   *profile.Profile
	Genders   []string
	EditIndex int
	Address   profile.Address
	Errors    map[string]string
}

// Editing reports whether the address form edits an existing entry.
func (p ProfilePage) Editing() bool {
	return p.Profile != nil && p.EditIndex >= 0 && p.EditIndex < len(p.Profile.Addresses)
}

// LoginPage is the sign-in form.
type LoginPage struct {
	Chrome
	Email  string
	Next   string
	Errors map[string]string
}

// RegisterPage is the sign-up form.
type RegisterPage struct {
	Chrome
	Name   string
	Email  string
	Mobile string
	Errors map[string]string
}

// CategoriesPage is the category admin table plus create/edit form.
type CategoriesPage struct {
	Chrome
	Categories []catalog.Category
	Search     string
	EditID     string
	Form       catalog.CategoryInput
	Errors     map[string]string
}

// BrandsPage is the brand admin table plus create/edit form.
type BrandsPage struct {
	Chrome
	Brands  []catalog.Brand
	Search  string
	EditID  string
	EditKey string
	Form    catalog.BrandInput
	Errors  map[string]string
}

// ProductFormPage is the admin product create form.
type ProductFormPage struct {
	Chrome
	Form       catalog.ProductInput
	Categories []catalog.Category
	Brands     []catalog.Brand
	Errors     map[string]string
	MaxKB      int64
}

// DeletedProductsPage lists soft-deleted products for restore.
type DeletedProductsPage struct {
	Chrome
	Products  []catalog.Product
	LoadError string
}

// UsersPage is the admin user directory.
type UsersPage struct {
	Chrome
	Users      []users.User
	Search     string
	Page       int
	TotalPages int
	LoadError  string
}

// PageQuery renders the query string for page n keeping the search.
func (p UsersPage) PageQuery(n int) string {
	return pageQuery(n, map[string]string{"search": p.Search})
}

// ConfirmPage asks before a destructive action is sent.
type ConfirmPage struct {
	Chrome
	Heading string
	Message string
	Action  string
	Cancel  string
}

// ErrorPage renders a failure status.
type ErrorPage struct {
	Chrome
	Status  int
	Message string
}

func pageQuery(n int, filters map[string]string) string {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	q.Set("page", strconv.Itoa(n))
	return "?" + q.Encode()
}

// ProductCard pairs a product with the layout state for the shared card partial.
type ProductCard struct {
	Chrome
	Product catalog.Product
}

// Card wraps p for the product-card partial.
func (c Chrome) Card(p catalog.Product) ProductCard {
	return ProductCard{Chrome: c, Product: p}
}

// Layout exposes the embedded layout state of any page.
func (c Chrome) Layout() Chrome {
	return c
}
