package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/session"
)

var (
	admin   = session.Identity{Token: "admin-token", UserID: "a1", Role: session.RoleAdmin}
	shopper = session.Identity{Token: "tok", UserID: "u1", Name: "Asha"}
)

func TestRatingLabel(t *testing.T) {
	t.Parallel()

	p := Product{Reviews: []Review{{Rating: 4}, {Rating: 5}}}
	require.Equal(t, "4.5", p.RatingLabel())
	require.Equal(t, 4, p.FullStars())

	require.Equal(t, "No ratings", Product{}.RatingLabel())

	three := Product{Reviews: []Review{{Rating: 3}, {Rating: 4}, {Rating: 4}}}
	require.Equal(t, "3.7", three.RatingLabel())
}

func TestGroupByCategory(t *testing.T) {
	t.Parallel()

	products := []Product{
		{ID: "1", Category: backend.Ref{Name: "Footwear"}},
		{ID: "2"},
		{ID: "3", Category: backend.Ref{Name: "Footwear"}},
		{ID: "4", Category: backend.Ref{Name: "Bags"}},
	}
	groups := GroupByCategory(products)
	require.Len(t, groups, 3)
	require.Equal(t, "Footwear", groups[0].Name)
	require.Len(t, groups[0].Products, 2)
	require.Equal(t, OthersGroup, groups[1].Name)
	require.Equal(t, "Bags", groups[2].Name)
}

func TestGallerySkipsBlanksAndRepeats(t *testing.T) {
	t.Parallel()

	p := Product{Thumbnail: "a.png", Images: []string{"", "b.png", "a.png"}}
	require.Equal(t, []string{"a.png", "b.png"}, p.Gallery())
}

func validProduct() ProductInput {
	return ProductInput{
		Title:     "Trail Runner",
		Brand:     "b-stride",
		Category:  "c-footwear",
		Price:     "1000",
		Thumbnail: &backend.File{Name: "thumb.png", ContentType: "image/png", Data: []byte("png")},
	}
}

func TestProductInputValidation(t *testing.T) {
	t.Parallel()

	require.NoError(t, validProduct().Validate(0))

	missing := validProduct()
	missing.Thumbnail = nil
	missing.Brand = " "
	err := missing.Validate(0)
	var verr *backend.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Thumbnail is required", verr.Fields["thumbnail"])
	require.Equal(t, "Brand is required", verr.Fields["brand"])

	large := validProduct()
	large.Thumbnail.Data = bytes.Repeat([]byte{1}, int(DefaultImageMaxBytes)+1)
	require.ErrorAs(t, large.Validate(0), &verr)
	require.Equal(t, "Thumbnail must be less than 100 KB", verr.Fields["thumbnail"])

	atLimit := validProduct()
	atLimit.Thumbnail.Data = bytes.Repeat([]byte{1}, int(DefaultImageMaxBytes))
	require.NoError(t, atLimit.Validate(0))

	gallery := validProduct()
	gallery.Images = []backend.File{{Name: "ok.png", Data: []byte("x")}, {Name: "big.png", Data: make([]byte, 2048)}}
	require.ErrorAs(t, gallery.Validate(1024), &verr)
	require.Equal(t, "Each image must be less than 1 KB", verr.Fields["images"])

	pricey := validProduct()
	pricey.DiscountPrice = "1200"
	require.ErrorAs(t, pricey.Validate(0), &verr)
	require.Contains(t, verr.Fields, "discountPrice")
}

func TestReviewInputValidation(t *testing.T) {
	t.Parallel()

	require.NoError(t, ReviewInput{ProductID: "p1", Rating: 5}.Validate())
	require.Equal(t, "Please select a rating", backend.UserMessage(ReviewInput{ProductID: "p1"}.Validate(), ""))
	require.Error(t, ReviewInput{ProductID: "p1", Rating: 6}.Validate())
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	require.Equal(t, "cafe-munster-co", Slugify("  Café Münster & Co. "))
	require.Equal(t, "running-shoes-2025", Slugify("Running   Shoes--2025"))
	require.Empty(t, Slugify("!!!"))

	in := CategoryInput{Name: "Home Décor"}.Normalize()
	require.Equal(t, "home-decor", in.Slug)
}

func TestCategoryInputValidation(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Category name and slug are required", backend.UserMessage(CategoryInput{}.Normalize().Validate(), ""))
	bad := CategoryInput{Name: "Bags", SortOrder: "first"}.Normalize()
	require.Equal(t, "Sort order must be a number", backend.UserMessage(bad.Validate(), ""))
}

func TestBrandInputValidation(t *testing.T) {
	t.Parallel()

	require.NoError(t, BrandInput{Name: "Stride", Website: "https://stride.example"}.Normalize().Validate())
	require.Equal(t, "Brand name is required", backend.UserMessage(BrandInput{}.Validate(), ""))
	require.Error(t, BrandInput{Name: "Stride", Website: "javascript:alert(1)"}.Validate())
}

func TestRenderDescriptionSanitizes(t *testing.T) {
	t.Parallel()

	html := string(RenderDescription("**Bold** claim\n\n<script>alert(1)</script>\n\n[site](https://example.com)"))
	require.Contains(t, html, "<strong>Bold</strong>")
	require.NotContains(t, html, "<script")
	require.Contains(t, html, `rel="nofollow`)
	require.Empty(t, RenderDescription("   "))

	require.Equal(t, "Great fit", SanitizeComment(" <b>Great</b> fit<script>x</script> "))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := backend.New(backend.Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
	require.NoError(t, err)
	return client
}

func TestHTTPServiceProducts(t *testing.T) {
	t.Parallel()

	listBodies := make(chan map[string]any, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/list":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			listBodies <- body
			_, _ = io.WriteString(w, `{"success":true,"data":[{"_id":"p1","title":"Shoe","price":1000,"discountPrice":800,"category":{"_id":"c1","name":"Footwear"}}],"pagination":{"total":19}}`)
		case "/products/p1":
			_, _ = io.WriteString(w, `{"success":true,"message":{"_id":"p1","title":"Shoe","price":"1000","brand":{"_id":"b1","name":"Stride"},"reviews":[{"rating":4,"user":"u9"}]}}`)
		case "/products/gone":
			_, _ = io.WriteString(w, `{"success":true,"message":"Product not found"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	svc := NewHTTPService(client, 0)
	ctx := context.Background()

	page, err := svc.ListProducts(ctx, session.Identity{}, ProductQuery{Page: 2, Category: "c1", Search: " shoe "})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 19, page.Total)
	require.Equal(t, "Footwear", page.Products[0].Category.Name)
	require.Equal(t, "800", page.Products[0].UnitPrice().String())
	require.Equal(t, map[string]any{"page": float64(2), "size": float64(9), "category": "c1", "search": "shoe"}, <-listBodies)

	product, err := svc.GetProduct(ctx, shopper, "p1")
	require.NoError(t, err)
	require.Equal(t, "Stride", product.Brand.Name)
	require.Equal(t, "u9", product.Reviews[0].User.ID)

	_, err = svc.GetProduct(ctx, shopper, "gone")
	require.ErrorIs(t, err, backend.ErrNotFound)

	_, err = svc.GetProduct(ctx, shopper, "../users/list")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestHTTPServiceCreateProductMultipart(t *testing.T) {
	t.Parallel()

	type captured struct {
		fields map[string][]string
		files  map[string]int
	}
	got := make(chan captured, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/products/create", r.URL.Path)
		require.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := make(map[string]int)
		for name, headers := range r.MultipartForm.File {
			files[name] = len(headers)
		}
		got <- captured{fields: r.MultipartForm.Value, files: files}
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	svc := NewHTTPService(client, 0)

	input := validProduct()
	input.Images = []backend.File{{Name: "a.png", Data: []byte("a")}, {Name: "b.png", Data: []byte("b")}}
	require.NoError(t, svc.CreateProduct(context.Background(), admin, input))

	c := <-got
	require.Equal(t, []string{"Trail Runner"}, c.fields["title"])
	require.Equal(t, []string{"b-stride"}, c.fields["brand"])
	require.Equal(t, 1, c.files["thumbnail"])
	require.Equal(t, 2, c.files["images"])

	input.Thumbnail = nil
	require.Error(t, svc.CreateProduct(context.Background(), admin, input))
}

func TestHTTPServiceCategoryAndBrandWrites(t *testing.T) {
	t.Parallel()

	type request struct {
		method string
		path   string
		body   string
		update string
	}
	seen := make(chan request, 4)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := request{method: r.Method, path: r.URL.Path}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			req.body = r.FormValue("id")
			req.update = r.FormValue("update")
		} else {
			raw, _ := io.ReadAll(r.Body)
			req.body = strings.TrimSpace(string(raw))
		}
		seen <- req
		_, _ = io.WriteString(w, `{"success":true}`)
	})
	svc := NewHTTPService(client, 0)
	ctx := context.Background()

	require.NoError(t, svc.UpdateCategory(ctx, admin, "c1", CategoryInput{Name: "Bags", SortOrder: "3", IsActive: true}))
	r := <-seen
	require.Equal(t, "/categories/update", r.path)
	require.JSONEq(t, `{"id":"c1","update":{"name":"Bags","slug":"bags","description":"","image":"","isFeatured":false,"sortOrder":3,"isActive":true}}`, r.body)

	require.NoError(t, svc.DeleteCategory(ctx, admin, "c1"))
	r = <-seen
	require.Equal(t, "/categories/delete", r.path)
	require.JSONEq(t, `{"id":"c1"}`, r.body)

	require.NoError(t, svc.UpdateBrand(ctx, admin, "b1", BrandInput{Name: " Stride ", Website: "https://stride.example"}))
	r = <-seen
	require.Equal(t, "/brands/update", r.path)
	require.Equal(t, "b1", r.body)
	require.JSONEq(t, `{"name":"Stride","description":"","website":"https://stride.example"}`, r.update)

	require.NoError(t, svc.DeleteBrand(ctx, admin, "b1"))
	r = <-seen
	require.Equal(t, http.MethodDelete, r.method)
	require.Equal(t, "/brands/delete/b1", r.path)
}

func TestHTTPServiceReviewSurfacesBusinessMessage(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		_, _ = io.WriteString(w, `{"success":false,"message":"You already rated this product"}`)
	})
	svc := NewHTTPService(client, 0)

	err := svc.AddReview(context.Background(), shopper, ReviewInput{ProductID: "p1", Rating: 4, Comment: "<i>nice</i>"})
	require.Equal(t, "You already rated this product", backend.UserMessage(err, "Unable to submit review"))
	require.Equal(t, map[string]any{"productId": "p1", "rating": float64(4), "comment": "nice"}, <-bodies)

	require.ErrorIs(t, svc.AddReview(context.Background(), session.Identity{}, ReviewInput{ProductID: "p1", Rating: 4}), backend.ErrUnauthorized)
}

func TestRateServiceCachesAndFallsBack(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/latest", r.URL.Path)
		require.Equal(t, "USD", r.URL.Query().Get("symbols"))
		_, _ = io.WriteString(w, `{"success":true,"base":"INR","rates":{"USD":0.0119}}`)
	}))
	t.Cleanup(ok.Close)

	rates, err := NewRateService(RateConfig{URL: ok.URL + "/latest?base=INR&symbols=USD", HTTPClient: ok.Client()})
	require.NoError(t, err)
	require.InDelta(t, 0.0119, rates.USDRate(context.Background()), 1e-9)
	require.InDelta(t, 0.0119, rates.USDRate(context.Background()), 1e-9)
	require.Equal(t, int32(1), hits.Load())

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"error":{"type":"missing_access_key"}}`)
	}))
	t.Cleanup(failing.Close)

	fallback, err := NewRateService(RateConfig{URL: failing.URL + "/latest", HTTPClient: failing.Client()})
	require.NoError(t, err)
	require.InDelta(t, DefaultUSDRate, fallback.USDRate(context.Background()), 1e-9)

	_, err = NewRateService(RateConfig{URL: "not a url"})
	require.Error(t, err)
}

func TestStaticServiceAdminGuardsAndReviews(t *testing.T) {
	t.Parallel()

	svc := NewSampleService()
	ctx := context.Background()

	err := svc.DeleteProduct(ctx, shopper, "p-shoe")
	var httpErr *backend.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusForbidden, httpErr.Status)

	require.NoError(t, svc.DeleteProduct(ctx, admin, "p-shoe"))
	page, err := svc.ListProducts(ctx, shopper, ProductQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	deleted, err := svc.ListDeletedProducts(ctx, admin)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.NoError(t, svc.RestoreProduct(ctx, admin, "p-shoe"))

	require.NoError(t, svc.AddReview(ctx, shopper, ReviewInput{ProductID: "p-bag", Rating: 5}))
	err = svc.AddReview(ctx, shopper, ReviewInput{ProductID: "p-bag", Rating: 3})
	require.Equal(t, "You already rated this product", backend.UserMessage(err, ""))

	bag, err := svc.GetProduct(ctx, shopper, "p-bag")
	require.NoError(t, err)
	require.Equal(t, "5.0", bag.RatingLabel())

	filtered, err := svc.ListProducts(ctx, shopper, ProductQuery{Category: "c-footwear"})
	require.NoError(t, err)
	require.Len(t, filtered.Products, 1)
}
