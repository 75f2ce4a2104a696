package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/platform/httpx"
	"github.com/grindngainz15/fronted/internal/platform/requestctx"
	"github.com/grindngainz15/fronted/internal/storefront/auth"
	"github.com/grindngainz15/fronted/internal/storefront/backend"
	"github.com/grindngainz15/fronted/internal/storefront/cart"
	"github.com/grindngainz15/fronted/internal/storefront/catalog"
	"github.com/grindngainz15/fronted/internal/storefront/checkout"
	"github.com/grindngainz15/fronted/internal/storefront/format"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/messages"
	"github.com/grindngainz15/fronted/internal/storefront/orders"
	"github.com/grindngainz15/fronted/internal/storefront/profile"
	"github.com/grindngainz15/fronted/internal/storefront/session"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
	"github.com/grindngainz15/fronted/internal/storefront/users"
)

const maxUploadMemory = 8 << 20

// Dependencies collects external services required by the UI handlers.
// Nil services fall back to the in-memory implementations.
type Dependencies struct {
	Auth          auth.Service
	Cart          cart.Service
	Checkout      checkout.Service
	Drafts        checkout.DraftStore
	Orders        orders.Service
	Tracker       *orders.Tracker
	Profile       profile.Service
	Catalog       catalog.Service
	Users         users.Service
	Rates         catalog.RateSource
	QuickBuy      *cart.Aggregate
	Messages      *messages.Bundle
	Renderer      *templates.Renderer
	ImageMaxBytes int64
	Logger        *zap.Logger
	Now           func() time.Time
}

// Handlers exposes HTTP handlers for storefront pages and fragments.
type Handlers struct {
	auth          auth.Service
	cart          cart.Service
	checkout      checkout.Service
	drafts        checkout.DraftStore
	orders        orders.Service
	tracker       *orders.Tracker
	profile       profile.Service
	catalog       catalog.Service
	users         users.Service
	rates         catalog.RateSource
	quickBuy      *cart.Aggregate
	messages      *messages.Bundle
	renderer      *templates.Renderer
	imageMaxBytes int64
	now           func() time.Time
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		auth:          deps.Auth,
		cart:          deps.Cart,
		checkout:      deps.Checkout,
		drafts:        deps.Drafts,
		orders:        deps.Orders,
		tracker:       deps.Tracker,
		profile:       deps.Profile,
		catalog:       deps.Catalog,
		users:         deps.Users,
		rates:         deps.Rates,
		quickBuy:      deps.QuickBuy,
		messages:      deps.Messages,
		renderer:      deps.Renderer,
		imageMaxBytes: deps.ImageMaxBytes,
		now:           deps.Now,
	}
	if h.auth == nil {
		h.auth = auth.NewStaticService()
	}
	if h.cart == nil {
		h.cart = cart.NewStaticService(cart.SampleProducts()...)
	}
	if h.checkout == nil {
		h.checkout = checkout.NewStaticService()
	}
	if h.drafts == nil {
		h.drafts = checkout.NewMemoryDraftStore(0)
	}
	if h.orders == nil {
		h.orders = orders.NewStaticService(orders.SampleOrders()...)
	}
	if h.tracker == nil {
		h.tracker = orders.NewTracker(h.orders, 0, logger)
	}
	if h.profile == nil {
		h.profile = profile.NewStaticService(profile.SampleProfiles()...)
	}
	if h.catalog == nil {
		h.catalog = catalog.NewSampleService()
	}
	if h.users == nil {
		h.users = users.NewStaticService(users.SampleUsers()...)
	}
	if h.rates == nil {
		h.rates = catalog.FixedRate(catalog.DefaultUSDRate)
	}
	if h.quickBuy == nil {
		h.quickBuy = cart.NewAggregate(time.Hour)
	}
	if h.messages == nil {
		h.messages = messages.MustLoad()
	}
	if h.renderer == nil {
		h.renderer = templates.MustNew()
	}
	if h.imageMaxBytes <= 0 {
		h.imageMaxBytes = catalog.DefaultImageMaxBytes
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// chrome assembles the layout state and drains queued flashes into it.
func (h *Handlers) chrome(r *http.Request, title string) templates.Chrome {
	ctx := r.Context()
	c := templates.NewChrome(h.messages, format.New(format.MatchLanguage(r.Header.Get("Accept-Language"))))
	c.Title = title
	c.Lang = custommw.LanguageFromContext(ctx)
	c.Path = custommw.RequestPathFromContext(ctx)
	c.Environment = custommw.EnvironmentFromContext(ctx)
	c.CSRFToken = custommw.CSRFTokenFromContext(ctx)
	if sess, ok := custommw.SessionFromContext(ctx); ok {
		c.Identity = sess.Identity()
		c.Flashes = sess.PopFlashes()
	}
	return c
}

func (h *Handlers) t(r *http.Request, key string, args ...any) string {
	return h.messages.T(custommw.LanguageFromContext(r.Context()), key, args...)
}

func (h *Handlers) flash(r *http.Request, kind session.FlashKind, message string) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok {
		sess.AddFlash(kind, message)
	}
}

// requeue hands flashes drained into a page back to the session when the
// response turns out to be a redirect.
func (h *Handlers) requeue(r *http.Request, flashes []session.Flash) {
	for _, f := range flashes {
		h.flash(r, f.Kind, f.Message)
	}
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	h.renderStatus(w, r, http.StatusOK, page, data)
}

func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	templ.Handler(h.renderer.Page(page, data), templ.WithStatus(status)).ServeHTTP(w, r)
}

// fragment renders one block for an htmx swap, followed by any queued flashes
// as an out-of-band swap.
func (h *Handlers) fragment(w http.ResponseWriter, r *http.Request, page, block string, data any) {
	h.fragmentStatus(w, r, http.StatusOK, page, block, data)
}

func (h *Handlers) fragmentStatus(w http.ResponseWriter, r *http.Request, status int, page, block string, data any) {
	component := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		if err := h.renderer.Fragment(page, block, data).Render(ctx, out); err != nil {
			return err
		}
		page, ok := data.(interface{ Layout() templates.Chrome })
		if !ok || len(page.Layout().Flashes) == 0 {
			return nil
		}
		return h.renderer.Fragment("error", "flashes-oob", page.Layout()).Render(ctx, out)
	})
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *Handlers) errorPage(w http.ResponseWriter, r *http.Request, status int, message string) {
	page := templates.ErrorPage{Chrome: h.chrome(r, http.StatusText(status)), Status: status, Message: message}
	h.renderStatus(w, r, status, "error", page)
}

// redirect answers a form post. htmx follows HX-Redirect with a full navigation.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if custommw.HTMXInfoFromContext(r.Context()).IsHTMX {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleAuthError applies the uniform 401 policy and reports whether it did.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	custommw.Unauthorized(w, r, custommw.DefaultLoginPath)
	return true
}

// failureMessage maps err onto the text a shopper sees for a failed action.
func (h *Handlers) failureMessage(r *http.Request, err error, fallbackKey string) string {
	if errors.Is(err, backend.ErrUnavailable) {
		return h.t(r, "errors.unavailable")
	}
	return backend.UserMessage(err, h.t(r, fallbackKey))
}

func (h *Handlers) logFailure(r *http.Request, msg string, err error) {
	var verr *backend.ValidationError
	if errors.As(err, &verr) {
		return
	}
	requestctx.Logger(r.Context()).Warn(msg, zap.Error(err))
}

func identity(r *http.Request) session.Identity {
	return custommw.IdentityFromContext(r.Context())
}

func fieldErrors(err error) map[string]string {
	var verr *backend.ValidationError
	if errors.As(err, &verr) && !verr.Empty() {
		return verr.Fields
	}
	return nil
}

// NotFound renders the 404 page, or a JSON error for API-style clients.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.Write(w, r, httpx.NewError("not_found", "not found", http.StatusNotFound))
		return
	}
	h.errorPage(w, r, http.StatusNotFound, h.t(r, "errors.not_found"))
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}
