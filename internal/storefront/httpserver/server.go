package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/grindngainz15/fronted/internal/platform/observability"
	custommw "github.com/grindngainz15/fronted/internal/storefront/httpserver/middleware"
	"github.com/grindngainz15/fronted/internal/storefront/httpserver/ui"
	"github.com/grindngainz15/fronted/internal/storefront/messages"
	"github.com/grindngainz15/fronted/internal/storefront/rbac"
	"github.com/grindngainz15/fronted/internal/storefront/templates"
)

// Config holds runtime options for the storefront HTTP server.
type Config struct {
	Address        string
	Environment    string
	LoginPath      string
	Sessions       custommw.SessionStore
	CSRF           custommw.CSRFConfig
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	Logger         *zap.Logger
	// UI carries the backend services; nil entries use in-memory fakes.
	UI ui.Dependencies
}

// New constructs the HTTP server with the middleware stack, embedded assets
// and every storefront and admin route.
func New(cfg Config) *http.Server {
	if cfg.Sessions == nil {
		panic("httpserver: session store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = custommw.DefaultLoginPath
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	deps := cfg.UI
	if deps.Messages == nil {
		deps.Messages = messages.MustLoad()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	handlers := ui.NewHandlers(deps)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.TraceMiddleware())
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.RequestLoggerMiddleware(custommw.UserID))
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(chimw.Timeout(timeout))

	router.Get("/healthz", handlers.Healthz)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(templates.Static()))))

	pages := chi.Chain(
		custommw.Session(cfg.Sessions),
		custommw.HTMX(),
		custommw.RequestInfoMiddleware(deps.Messages.Resolve),
		custommw.Environment(cfg.Environment),
		custommw.CSRF(cfg.CSRF),
	)
	router.Group(func(r chi.Router) {
		r.Use(pages...)
		mountShopRoutes(r, handlers, loginPath)
		mountAdminRoutes(r, handlers, loginPath)
	})
	router.NotFound(pages.HandlerFunc(handlers.NotFound).ServeHTTP)

	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}
}

func mountShopRoutes(r chi.Router, h *ui.Handlers, loginPath string) {
	r.Get("/", h.Home)
	r.Get("/products", h.Products)
	r.Get("/products/{productID}", h.Product)
	r.Post("/currency", h.SetCurrency)

	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)

	// Quick buy is keyed by the browser session and needs no account.
	r.Post("/products/{productID}/quick-buy", h.QuickBuyAdd)
	r.Post("/products/{productID}/quick-buy/pay", h.QuickBuyPay)

	r.Group(func(r chi.Router) {
		r.Use(custommw.RequireAuth(loginPath))

		r.With(custommw.RequireCapability(rbac.CapWishlist)).Post("/products/{productID}/wishlist", h.ToggleWishlist)
		r.With(custommw.RequireCapability(rbac.CapReviewsWrite)).Post("/products/{productID}/reviews", h.AddReview)

		r.Route("/cart", func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapCartUse))
			r.Get("/", h.Cart)
			RegisterFragment(r, "/panel", h.CartPanel)
			r.Post("/items/{productID}/add", h.AddToCart)
			r.Post("/items/{productID}/increment", h.IncrementItem)
			r.Post("/items/{productID}/decrement", h.DecrementItem)
			r.Post("/items/{productID}/remove", h.RemoveItem)
			r.With(custommw.RequireCapability(rbac.CapCheckout)).Post("/checkout", h.ProceedToCheckout)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapCheckout))
			r.Get("/", h.Checkout)
			r.Post("/address", h.AddAddress)
			r.Post("/address/select", h.SelectAddress)
			r.Post("/place", h.PlaceOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapOrdersOwn))
			r.Get("/", h.Orders)
			r.Get("/{orderID}", h.Order)
			r.Post("/{orderID}/cancel", h.CancelOrder)
			r.Post("/{orderID}/return", h.RequestReturn)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapProfileSelf))
			r.Get("/", h.Profile)
			r.Post("/", h.UpdateProfile)
			r.Post("/addresses", h.SaveAddress)
			r.Post("/addresses/{index}/default", h.SetDefaultAddress)
			r.Get("/addresses/{index}/delete", h.ConfirmDeleteAddress)
			r.Post("/addresses/{index}/delete", h.DeleteAddress)
		})
	})
}

func mountAdminRoutes(r chi.Router, h *ui.Handlers, loginPath string) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(custommw.RequireAuth(loginPath))

		r.Group(func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapProductsManage))
			r.Get("/products/new", h.NewProduct)
			r.Post("/products", h.CreateProduct)
			r.Get("/products/{productID}/delete", h.ConfirmDeleteProduct)
			r.Post("/products/{productID}/delete", h.DeleteProduct)
		})
		r.Group(func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapProductsRestore))
			r.Get("/products/deleted", h.DeletedProducts)
			r.Post("/products/{productID}/restore", h.RestoreProduct)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapCategories))
			r.Get("/", h.AdminCategories)
			r.Post("/", h.CreateCategory)
			r.Post("/{categoryID}", h.UpdateCategory)
			r.Get("/{categoryID}/delete", h.ConfirmDeleteCategory)
			r.Post("/{categoryID}/delete", h.DeleteCategory)
		})
		r.Route("/brands", func(r chi.Router) {
			r.Use(custommw.RequireCapability(rbac.CapBrands))
			r.Get("/", h.AdminBrands)
			r.Post("/", h.CreateBrand)
			r.Post("/{brandID}", h.UpdateBrand)
			r.Get("/{brandID}/delete", h.ConfirmDeleteBrand)
			r.Post("/{brandID}/delete", h.DeleteBrand)
		})
		r.With(custommw.RequireCapability(rbac.CapUsersView)).Get("/users", h.AdminUsers)
	})
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

// RegisterFragment registers a GET handler intended for htmx fragment rendering.
func RegisterFragment(r chi.Router, pattern string, handler http.HandlerFunc) {
	r.With(custommw.RequireHTMX()).Get(pattern, handler)
}
