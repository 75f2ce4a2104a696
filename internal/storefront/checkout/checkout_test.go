package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

func sampleCart() *cart.Cart {
	discount := decimal.NewFromInt(800)
	return &cart.Cart{Items: []cart.Item{{
		ID:       "l1",
		Product:  cart.Product{ID: "p1", Title: "Shoe", Price: decimal.NewFromInt(1000), DiscountPrice: &discount},
		Quantity: 2,
	}}}
}

func setupTestRedis(t *testing.T) (*RedisDraftStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDraftStore(client, time.Minute), mr
}

func TestNewDraftSnapshotsTotals(t *testing.T) {
	t.Parallel()

	draft := NewDraft("u1", sampleCart(), time.Now())
	require.NotEmpty(t, draft.ID)
	require.Equal(t, "1600", draft.Total.String())
	require.Equal(t, 2, draft.Quantity())
	require.Equal(t, PaymentCOD, draft.Payment)
}

func TestRedisDraftStoreRoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	draft := NewDraft("u1", sampleCart(), time.Now())
	draft.SelectedAddressID = "a2"
	require.NoError(t, store.Save(ctx, draft))

	stored, err := mr.Get(draftKey(draft.ID))
	require.NoError(t, err)
	assert.Contains(t, stored, `"selectedAddressId":"a2"`)
	assert.Equal(t, time.Minute, mr.TTL(draftKey(draft.ID)))

	loaded, err := store.Load(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Total.Equal(draft.Total))
	assert.Len(t, loaded.Items, 1)
	assert.Equal(t, "a2", loaded.SelectedAddressID)

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRedisDraftStoreInvalidJSON(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(draftKey("broken"), `{"id":`))

	_, err := store.Load(context.Background(), "broken")
	require.ErrorContains(t, err, "unmarshal draft failed")
}

func TestMemoryDraftStoreExpires(t *testing.T) {
	t.Parallel()

	store := NewMemoryDraftStore(time.Minute)
	clock := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	draft := NewDraft("u1", sampleCart(), clock)
	require.NoError(t, store.Save(ctx, draft))
	_, err := store.Load(ctx, draft.ID)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	_, err = store.Load(ctx, draft.ID)
	require.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, store.Delete(ctx, draft.ID))
}

func TestBuildOrderRequiresSelectedAddress(t *testing.T) {
	t.Parallel()

	draft := NewDraft("u1", sampleCart(), time.Now())
	_, err := BuildOrder(session.Identity{UserID: "u1"}, draft, []profile.Address{{ID: "a1", Street: "x"}})
	require.Equal(t, "Please select an address", backend.UserMessage(err, ""))

	_, err = BuildOrder(session.Identity{UserID: "u1"}, NewDraft("u1", &cart.Cart{}, time.Now()), nil)
	var verr *backend.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "items")
}

func TestBuildOrderPrefersSessionIdentity(t *testing.T) {
	t.Parallel()

	addresses := []profile.Address{
		{ID: "a1", FullName: "Old Name", Phone: "111", Street: "1 Main"},
		{ID: "a2", FullName: "Other", Phone: "222", Street: "2 Side"},
	}
	draft := NewDraft("u1", sampleCart(), time.Now())
	draft.SelectedAddressID = "a1"
	draft.Payment = PaymentUPI

	order, err := BuildOrder(session.Identity{UserID: "u1", Name: "Asha", Mobile: "999"}, draft, addresses)
	require.NoError(t, err)
	require.Equal(t, "Asha", order.ShippingAddress.FullName)
	require.Equal(t, "999", order.ShippingAddress.Phone)
	require.Equal(t, "1 Main", order.ShippingAddress.Street)
	require.Equal(t, PaymentUPI, order.Payment)
	require.Len(t, order.IdempotencyKey, 26)
	require.Equal(t, "Old Name", addresses[0].FullName)

	order, err = BuildOrder(session.Identity{UserID: "u1"}, draft, addresses)
	require.NoError(t, err)
	require.Equal(t, "Old Name", order.ShippingAddress.FullName)
}

func TestSelectInitialAddress(t *testing.T) {
	t.Parallel()

	addresses := []profile.Address{{ID: "a1"}, {ID: "a2", IsDefault: true}}
	require.Equal(t, "a2", SelectInitialAddress(addresses, ""))
	require.Equal(t, "a1", SelectInitialAddress(addresses, "a1"))
	require.Equal(t, "a2", SelectInitialAddress(addresses, "gone"))
	require.Equal(t, "a1", SelectInitialAddress([]profile.Address{{ID: "a1"}, {ID: "a3"}}, ""))
	require.Empty(t, SelectInitialAddress(nil, ""))
}

func TestParsePaymentMethod(t *testing.T) {
	t.Parallel()

	method, err := ParsePaymentMethod("net_banking")
	require.NoError(t, err)
	require.Equal(t, PaymentNetBanking, method)

	method, err = ParsePaymentMethod("  ")
	require.NoError(t, err)
	require.Equal(t, PaymentCOD, method)

	_, err = ParsePaymentMethod("BITCOIN")
	var verr *backend.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Select a valid payment method", verr.Fields["payment"])
	require.Equal(t, "Cash on Delivery", PaymentCOD.Label())
}

func TestHTTPServicePlaceOrderPayload(t *testing.T) {
	t.Parallel()

	type captured struct {
		key  string
		body map[string]any
	}
	requests := make(chan captured, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders/create", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests <- captured{key: r.Header.Get("Idempotency-Key"), body: body}
		_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"o1"}}`)
	}))
	t.Cleanup(ts.Close)

	client, err := backend.New(backend.Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)

	draft := NewDraft("u1", sampleCart(), time.Now())
	draft.SelectedAddressID = "a1"
	order, err := BuildOrder(session.Identity{Token: "tok", UserID: "u1", Name: "Asha"}, draft, []profile.Address{{ID: "a1", Street: "1 Main"}})
	require.NoError(t, err)

	placed, err := NewHTTPService(client).PlaceOrder(context.Background(), session.Identity{Token: "tok"}, order)
	require.NoError(t, err)
	require.Equal(t, "o1", placed.OrderID)

	got := <-requests
	require.Equal(t, order.IdempotencyKey, got.key)
	require.Equal(t, float64(1600), got.body["total"])
	require.Equal(t, map[string]any{"method": "COD"}, got.body["payment"])
	shipping := got.body["shippingAddress"].(map[string]any)
	require.Equal(t, "Asha", shipping["fullName"])
	items := got.body["items"].([]any)
	require.Len(t, items, 1)
	product := items[0].(map[string]any)["product"].(map[string]any)
	require.Equal(t, float64(800), product["discountPrice"])
}

func TestStaticServiceFailureLeavesNothingRecorded(t *testing.T) {
	t.Parallel()

	svc := NewStaticService()
	svc.FailWith(&backend.BusinessError{Message: "Insufficient stock"})
	_, err := svc.PlaceOrder(context.Background(), session.Identity{Token: "t"}, Order{})
	require.Error(t, err)
	require.Empty(t, svc.Submitted())
}
