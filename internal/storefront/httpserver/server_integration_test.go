package httpserver_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/testutil"
)

const (
	shopperEmail = "asha@onekart.test"
	adminEmail   = "admin@onekart.test"
	password     = "password"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Get("/healthz")
	require.Equal(t, http.StatusOK, resp.Status)
	require.JSONEq(t, `{"status":"ok"}`, string(resp.Body))
}

func TestAnonymousCartRedirectsToLogin(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Get("/cart")
	require.Equal(t, http.StatusFound, resp.Status)
	require.Equal(t, "/login?next=%2Fcart", resp.Header.Get("Location"))

	resp = client.Get("/cart", testutil.HTMX()...)
	require.Equal(t, http.StatusUnauthorized, resp.Status)
	require.Equal(t, "/login?next=%2Fcart", resp.Header.Get("HX-Redirect"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Post("/login", url.Values{"email": {shopperEmail}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, resp.Status)
	require.Contains(t, resp.Doc(t).Find(".alert-error").Text(), "Invalid email or password")

	resp = client.Get("/cart")
	require.Equal(t, http.StatusFound, resp.Status, "failed login must not sign in")
}

func TestLoginFollowsSafeNext(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Post("/login", url.Values{"email": {shopperEmail}, "password": {password}, "next": {"/orders"}})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/orders", resp.Header.Get("Location"))

	other := testutil.NewClient(t, testutil.NewServer(t))
	resp = other.Post("/login", url.Values{"email": {shopperEmail}, "password": {password}, "next": {"//evil.example"}})
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestCSRFRequiredOnMutations(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)

	resp := client.Post("/cart/items/p-shoe/add", url.Values{"csrf_token": {"forged"}})
	require.Equal(t, http.StatusForbidden, resp.Status)
}

func TestCartDecrementStopsAtOne(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)

	resp := client.Post("/cart/items/p-shoe/add", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/cart", resp.Header.Get("Location"))

	resp = client.Post("/cart/items/p-shoe/decrement", nil, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	doc := resp.Doc(t)
	require.Equal(t, "1", strings.TrimSpace(doc.Find("#cart-panel .quantity").Text()))
	require.Equal(t, 1, doc.Find("#cart-panel button.decrement[disabled]").Length())
	require.Contains(t, doc.Find("#flashes").Text(), "Quantity cannot go below 1")

	resp = client.Post("/cart/items/p-shoe/increment", nil, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	doc = resp.Doc(t)
	require.Equal(t, "2", strings.TrimSpace(doc.Find("#cart-panel .quantity").Text()))
	require.Equal(t, "₹1,600", doc.Find(".total-price").Text())
	require.Equal(t, 1, doc.Find(`form[action="/cart/items/p-shoe/decrement"]`).Length())

	resp = client.Post("/cart/items/p-shoe/decrement", nil, testutil.HTMX()...)
	require.Equal(t, "1", strings.TrimSpace(resp.Doc(t).Find("#cart-panel .quantity").Text()))
}

func TestCartRemoveShowsEmptyState(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)
	client.Post("/cart/items/p-bag/add", nil)

	resp := client.Post("/cart/items/p-bag/remove", nil, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	doc := resp.Doc(t)
	require.Contains(t, doc.Find("#cart-panel .empty-state").Text(), "Your cart is empty")
	require.Contains(t, doc.Find("#flashes").Text(), "Item removed from cart")
}

func TestBackendUnauthorizedSignsOut(t *testing.T) {
	t.Parallel()

	svc := cart.NewStaticService(cart.SampleProducts()...)
	client := testutil.NewClient(t, testutil.NewServer(t, testutil.WithCartService(svc)))
	client.Login(shopperEmail, password)

	svc.FailNext(backend.ErrUnauthorized)
	resp := client.Get("/cart")
	require.Equal(t, http.StatusFound, resp.Status)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = client.Get("/cart")
	require.Equal(t, http.StatusFound, resp.Status, "session must be cleared after a backend 401")
	require.Equal(t, "/login?next=%2Fcart", resp.Header.Get("Location"))
}

func TestBackendUnauthorizedOnHTMXMutation(t *testing.T) {
	t.Parallel()

	svc := cart.NewStaticService(cart.SampleProducts()...)
	client := testutil.NewClient(t, testutil.NewServer(t, testutil.WithCartService(svc)))
	client.Login(shopperEmail, password)
	token := client.CSRFToken()

	svc.FailNext(backend.ErrUnauthorized)
	resp := client.Post("/cart/items/p-shoe/increment", url.Values{"csrf_token": {token}}, testutil.HTMX()...)
	require.Equal(t, http.StatusUnauthorized, resp.Status)
	require.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
}

func TestCheckoutPlacesOrderFromDraft(t *testing.T) {
	t.Parallel()

	placed := checkout.NewStaticService()
	client := testutil.NewClient(t, testutil.NewServer(t, testutil.WithCheckoutService(placed)))
	client.Login(shopperEmail, password)
	client.Post("/cart/items/p-shoe/add", nil)

	resp := client.Post("/cart/checkout", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/checkout", resp.Header.Get("Location"))

	resp = client.Get("/checkout")
	require.Equal(t, http.StatusOK, resp.Status)
	doc := resp.Doc(t)
	selected, _ := doc.Find("form.address-option.selected input[name=address_id]").Attr("value")
	require.Equal(t, "addr-home", selected, "default address is preselected")
	require.Contains(t, doc.Find(".order-summary .total").Text(), "₹800")

	resp = client.Post("/checkout/address/select", url.Values{"address_id": {"addr-work"}})
	require.Equal(t, http.StatusSeeOther, resp.Status)

	resp = client.Post("/checkout/place", url.Values{"payment": {"upi"}})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/orders", resp.Header.Get("Location"))

	submitted := placed.Submitted()
	require.Len(t, submitted, 1)
	order := submitted[0]
	require.Equal(t, checkout.PaymentUPI, order.Payment)
	require.Equal(t, "addr-work", order.ShippingAddress.ID)
	require.Equal(t, "Asha", order.ShippingAddress.FullName, "session name wins over the address record")
	require.Equal(t, "9876543210", order.ShippingAddress.Phone)
	require.True(t, decimal.NewFromInt(800).Equal(order.Total))
	require.Len(t, order.Items, 1)
	require.NotEmpty(t, order.IdempotencyKey)

	resp = client.Get("/checkout")
	require.Equal(t, http.StatusSeeOther, resp.Status, "draft is consumed by a placed order")
	require.Equal(t, "/cart", resp.Header.Get("Location"))
}

func TestCheckoutWithoutDraftReturnsToCart(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)

	resp := client.Get("/checkout")
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/cart", resp.Header.Get("Location"))
}

func TestCheckoutEmptyCartIsRefused(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)

	resp := client.Post("/cart/checkout", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/cart", resp.Header.Get("Location"))
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	t.Parallel()

	placed := checkout.NewStaticService()
	client := testutil.NewClient(t, testutil.NewServer(t, testutil.WithCheckoutService(placed)))
	client.Login(shopperEmail, password)
	client.Post("/cart/items/p-bag/add", nil)
	client.Post("/cart/checkout", nil)

	resp := client.Post("/checkout/place", url.Values{"payment": {"BITCOIN"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	require.Contains(t, resp.Doc(t).Find("form.place-order .field-error").Text(), "Select a valid payment method")
	require.Empty(t, placed.Submitted())

	resp = client.Post("/checkout/place", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Len(t, placed.Submitted(), 1)
	require.Equal(t, checkout.PaymentCOD, placed.Submitted()[0].Payment, "no choice means cash on delivery")
}

func TestCheckoutRejectsIncompleteAddress(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)
	client.Post("/cart/items/p-cap/add", nil)
	client.Post("/cart/checkout", nil)

	resp := client.Post("/checkout/address", url.Values{"street": {"1 Lake View"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	require.Contains(t, resp.Doc(t).Find(".field-error").Text(), "City is required")
}

func TestCancelOrderGating(t *testing.T) {
	t.Parallel()

	svc := orders.NewStaticService(orders.SampleOrders()...)
	client := testutil.NewClient(t, testutil.NewServer(t, testutil.WithOrdersService(svc)))
	client.Login(shopperEmail, password)

	// htmx only swaps 2xx bodies, so rejected actions must still answer 200.
	resp := client.Post("/orders/o-shipped/cancel", url.Values{"reason": {"Changed my mind"}}, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Contains(t, resp.Doc(t).Find("#order-panel .alert-error").Text(), "not available")
	require.Zero(t, svc.Calls("Cancel"))

	resp = client.Post("/orders/o-shipped/cancel", url.Values{"reason": {"Changed my mind"}})
	require.Equal(t, http.StatusConflict, resp.Status)

	resp = client.Post("/orders/o-placed/cancel", url.Values{"reason": {orders.ReasonOther}, "other_reason": {"  "}}, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Contains(t, resp.Doc(t).Find("#order-panel .alert-error").Text(), "Please write your reason")
	require.Zero(t, svc.Calls("Cancel"), "validation failures never reach the backend")

	resp = client.Post("/orders/o-placed/cancel", url.Values{"reason": {orders.ReasonOther}, "other_reason": {"  "}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	require.Contains(t, resp.Doc(t).Find("#order-panel .alert-error").Text(), "Please write your reason")

	resp = client.Post("/orders/o-placed/cancel", url.Values{"reason": {orders.ReasonOther}, "other_reason": {"Too slow"}}, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	doc := resp.Doc(t)
	require.Equal(t, "CANCELLED", strings.TrimSpace(doc.Find("#order-panel .status").Text()))
	require.Contains(t, doc.Find(".cancel-reason").Text(), "Too slow")
	require.Zero(t, doc.Find("form.cancel-order").Length())
	require.Equal(t, 1, svc.Calls("Cancel"))
}

func TestRequestReturnOnDeliveredOrder(t *testing.T) {
	t.Parallel()

	svc := orders.NewStaticService(orders.SampleOrders()...)
	client := testutil.NewClient(t, testutil.NewServer(t, testutil.WithOrdersService(svc)))
	client.Login(shopperEmail, password)

	resp := client.Get("/orders/o-placed")
	require.Equal(t, http.StatusOK, resp.Status)
	require.Zero(t, resp.Doc(t).Find("form.request-return").Length())

	resp = client.Post("/orders/o-placed/return", nil)
	require.Equal(t, http.StatusConflict, resp.Status)

	resp = client.Post("/orders/o-shipped/return", nil, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Contains(t, resp.Doc(t).Find("#order-panel .alert-error").Text(), "not available")
	require.Zero(t, svc.Calls("RequestReturn"))

	resp = client.Post("/orders/o-delivered/return", nil)
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/orders/o-delivered", resp.Header.Get("Location"))

	resp = client.Get("/orders/o-delivered")
	require.Equal(t, "RETURN REQUESTED", strings.TrimSpace(resp.Doc(t).Find("#order-panel .status").Text()))
}

func TestUnknownOrderIsNotFound(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	client.Login(shopperEmail, password)

	resp := client.Get("/orders/o-missing")
	require.Equal(t, http.StatusNotFound, resp.Status)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)

	anonymous := testutil.NewClient(t, ts)
	resp := anonymous.Get("/admin/users")
	require.Equal(t, http.StatusFound, resp.Status)
	require.Equal(t, "/login?next=%2Fadmin%2Fusers", resp.Header.Get("Location"))

	shopper := testutil.NewClient(t, ts)
	shopper.Login(shopperEmail, password)
	require.Equal(t, http.StatusForbidden, shopper.Get("/admin/users").Status)
	require.Equal(t, http.StatusForbidden, shopper.Get("/admin/categories").Status)
	require.Equal(t, http.StatusForbidden, shopper.Post("/admin/products/p-shoe/delete", nil).Status)

	admin := testutil.NewClient(t, ts)
	admin.Login(adminEmail, password)
	resp = admin.Get("/admin/users")
	require.Equal(t, http.StatusOK, resp.Status)
	doc := resp.Doc(t)
	require.Equal(t, "Users", doc.Find("h1").First().Text())
	require.Greater(t, doc.Find("table.users tbody tr").Length(), 0)
}

func TestNavigationReflectsRole(t *testing.T) {
	t.Parallel()

	ts := testutil.NewServer(t)
	shopper := testutil.NewClient(t, ts)
	shopper.Login(shopperEmail, password)
	require.Zero(t, shopper.Get("/products").Doc(t).Find(`nav a[href="/admin/users"]`).Length())

	admin := testutil.NewClient(t, ts)
	admin.Login(adminEmail, password)
	require.Equal(t, 1, admin.Get("/products").Doc(t).Find(`nav a[href="/admin/users"]`).Length())
}

func TestQuickBuyForAnonymousVisitor(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))

	resp := client.Post("/products/p-shoe/quick-buy", nil, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	require.Contains(t, resp.Doc(t).Find("#quick-buy .total").Text(), "₹800")

	resp = client.Post("/products/p-shoe/quick-buy/pay", url.Values{"payment": {"UPI"}}, testutil.HTMX()...)
	require.Equal(t, http.StatusOK, resp.Status)
	doc := resp.Doc(t)
	require.Contains(t, doc.Find("#flashes").Text(), "₹800 paid via UPI")
	require.Zero(t, doc.Find("#quick-buy .total").Length(), "basket is cleared after paying")
}

func TestCurrencyToggleRendersDollars(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))

	resp := client.Post("/currency", url.Values{"currency": {"USD"}, "next": {"/products"}})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	require.Equal(t, "/products", resp.Header.Get("Location"))

	body := string(client.Get("/products").Body)
	require.Contains(t, body, "$9.60")
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	t.Parallel()

	client := testutil.NewClient(t, testutil.NewServer(t))
	resp := client.Get("/nowhere")
	require.Equal(t, http.StatusNotFound, resp.Status)

	resp = client.Get("/nowhere", "Accept", "application/json")
	require.Equal(t, http.StatusNotFound, resp.Status)
	require.Contains(t, string(resp.Body), `"error":"not_found"`)
}
