package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/format"
	"github.com/grindngainz15/fronted/internal/storefront/messages"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func chrome(id session.Identity) Chrome {
	c := NewChrome(messages.MustLoad(), format.Default())
	c.Identity = id
	c.CSRFToken = "tok"
	return c
}

var (
	customer = session.Identity{Token: "t", UserID: "u1", Name: "Asha", Role: "user"}
	admin    = session.Identity{Token: "t", UserID: "a1", Name: "Admin", Role: "admin"}
)

func TestEveryPageParses(t *testing.T) {
	r := MustNew()
	for _, name := range []string{
		"home", "products", "product", "cart", "checkout", "orders", "order", "profile",
		"login", "register", "confirm", "error",
		"admin_categories", "admin_brands", "admin_product_form", "admin_deleted", "admin_users",
	} {
		require.True(t, r.Has(name), name)
	}
}

func TestCartDecrementNotActionableAtOne(t *testing.T) {
	r := MustNew()
	c := &cart.Cart{Items: []cart.Item{
		{Product: cart.Product{ID: "p1", Title: "Cap", Price: decimal.NewFromInt(300)}, Quantity: 1},
		{Product: cart.Product{ID: "p2", Title: "Shoe", Price: decimal.NewFromInt(1000), DiscountPrice: ptr(decimal.NewFromInt(800))}, Quantity: 2},
	}}
	page := CartPage{Chrome: chrome(customer), Cart: c, Totals: c.Totals()}
	doc := render(t, r.Page("cart", page))

	require.Equal(t, 0, doc.Find(`form[action="/cart/items/p1/decrement"]`).Length())
	require.Equal(t, 1, doc.Find(`tr[data-product="p1"] button.decrement[disabled]`).Length())
	require.Equal(t, 1, doc.Find(`form[action="/cart/items/p2/decrement"]`).Length())
	require.Equal(t, "₹1,900", doc.Find(".total-price").Text())
	require.Equal(t, "3", doc.Find(".total-quantity").Text())
	require.Equal(t, "tok", doc.Find(`input[name="csrf_token"]`).First().AttrOr("value", ""))
}

func TestEmptyCartLinksToProducts(t *testing.T) {
	r := MustNew()
	doc := render(t, r.Fragment("cart", "cart-panel", CartPage{Chrome: chrome(customer)}))
	require.Contains(t, doc.Find(".empty-state").Text(), "Your cart is empty")
	require.Equal(t, "/products", doc.Find(".empty-state a").AttrOr("href", ""))
	require.Equal(t, 0, doc.Find("html head title").Length(), "fragments render without the layout")
}

func TestOrderActionsFollowStatus(t *testing.T) {
	r := MustNew()
	cases := []struct {
		status     orders.Status
		wantCancel bool
		wantReturn bool
	}{
		{orders.StatusPlaced, true, false},
		{orders.StatusConfirmed, false, false},
		{orders.StatusShipped, false, false},
		{orders.StatusDelivered, false, true},
		{orders.StatusCancelled, false, false},
		{orders.StatusReturnRequested, false, false},
	}
	for _, tc := range cases {
		order := &orders.Order{ID: "o1", Status: tc.status}
		doc := render(t, r.Page("order", OrderPage{Chrome: chrome(customer), Order: order, Reasons: orders.CancelReasons}))
		require.Equal(t, tc.wantCancel, doc.Find("form.cancel-order").Length() == 1, tc.status)
		require.Equal(t, tc.wantReturn, doc.Find("form.request-return").Length() == 1, tc.status)
		require.Equal(t, tc.status.Display(), doc.Find("span.status").Text())
	}
}

func TestNavigationIsRoleGated(t *testing.T) {
	r := MustNew()
	links := func(id session.Identity) []string {
		doc := render(t, r.Page("error", ErrorPage{Chrome: chrome(id), Status: 404, Message: "nope"}))
		var out []string
		doc.Find("nav.topnav ul a").Each(func(_ int, s *goquery.Selection) {
			out = append(out, s.AttrOr("href", ""))
		})
		return out
	}

	require.Equal(t, []string{"/", "/products"}, links(session.Identity{}))
	require.Equal(t, []string{"/", "/products", "/cart", "/orders", "/profile"}, links(customer))
	adminLinks := links(admin)
	require.Contains(t, adminLinks, "/admin/categories")
	require.Contains(t, adminLinks, "/admin/users")
	require.Contains(t, adminLinks, "/admin/products/deleted")
}

func TestProductsPriceToggle(t *testing.T) {
	r := MustNew()
	page := ProductsPage{Chrome: chrome(customer), Page: 1, TotalPages: 2, Products: []catalog.Product{
		{ID: "p1", Title: "Shoe", Price: decimal.NewFromInt(1000), DiscountPrice: ptr(decimal.NewFromInt(800))},
	}}
	doc := render(t, r.Page("products", page))
	require.Equal(t, "₹800", doc.Find(".price strong").Text())
	require.Equal(t, "USD", doc.Find(`.currency-toggle input[name="currency"]`).AttrOr("value", ""))
	require.Equal(t, 0, doc.Find(`a[hx-confirm]`).Length(), "customers cannot delete")

	page.Chrome = chrome(admin)
	page.Currency = format.USD
	page.Rate = 0.012
	doc = render(t, r.Page("products", page))
	require.Equal(t, "$9.60", doc.Find(".price strong").Text())
	require.Equal(t, 1, doc.Find(`a[hx-post="/admin/products/p1/delete"]`).Length())
	require.Equal(t, 2, doc.Find(".pager a").Length()-1, "two page links plus next")
}

func TestRenderUnknownPage(t *testing.T) {
	r := MustNew()
	var buf bytes.Buffer
	require.Error(t, r.Page("missing", nil).Render(context.Background(), &buf))
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
