package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gofarma/internal/api/address"
	"gofarma/internal/api/cart"
	"gofarma/internal/api/category"
	"gofarma/internal/api/order"
	"gofarma/internal/api/product"
	"gofarma/internal/api/settings"
	"gofarma/internal/api/user"
	"gofarma/internal/domain"
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
	"gofarma/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	User     *user.Handler
	Address  *address.Handler
	Cart     *cart.Handler
	Order    *order.Handler
	Product  *product.Handler
	Category *category.Handler
	Settings *settings.Handler
}

// Options reúne a infraestrutura usada pelos middlewares.
type Options struct {
	Tokens      middleware.TokenService
	Sessions    middleware.SessionResolver
	Cache       cache.Client
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Logger      logger.Logger
	RateLimit   int
	RatePeriod  time.Duration
	CORSOrigins []string
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(opts.Tokens, opts.Sessions, opts.Logger)
	adminOnly := middleware.PermissionMiddleware(opts.Logger, domain.RoleAdmin)
	admin := func(next http.HandlerFunc) http.HandlerFunc { return auth(adminOnly(next)) }

	// --- 1. Infraestrutura ---
	mux.HandleFunc("GET /ping", PingHandler)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Rotas públicas ---
	mux.HandleFunc("POST /v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", h.User.LoginUserHandler)
	mux.HandleFunc("GET /v1/products", h.Product.GetProductsHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductByIDHandler)
	mux.HandleFunc("GET /v1/categories", h.Category.ListHandler)
	mux.HandleFunc("GET /v1/categories/{id}", h.Category.GetHandler)
	mux.HandleFunc("GET /v1/settings", h.Settings.GetHandler)
	mux.HandleFunc("GET /v1/shipping/methods", h.Settings.ShippingMethodsHandler)
	mux.HandleFunc("GET /v1/shipping/quote", h.Settings.ShippingQuoteHandler)
	mux.HandleFunc("GET /v1/installments", h.Settings.InstallmentsHandler)

	// --- 3. Rotas autenticadas ---
	mux.HandleFunc("POST /v1/logout", auth(h.User.LogoutHandler))
	mux.HandleFunc("GET /v1/me", auth(h.User.MeHandler))
	mux.HandleFunc("PUT /v1/me", auth(h.User.UpdateMeHandler))

	mux.HandleFunc("GET /v1/me/addresses", auth(h.Address.ListHandler))
	mux.HandleFunc("POST /v1/me/addresses", auth(h.Address.AddHandler))
	mux.HandleFunc("GET /v1/me/addresses/default", auth(h.Address.DefaultHandler))
	mux.HandleFunc("PUT /v1/me/addresses/{id}", auth(h.Address.UpdateHandler))
	mux.HandleFunc("DELETE /v1/me/addresses/{id}", auth(h.Address.RemoveHandler))
	mux.HandleFunc("POST /v1/me/addresses/{id}/default", auth(h.Address.SetDefaultHandler))

	mux.HandleFunc("GET /v1/cart", auth(h.Cart.GetHandler))
	mux.HandleFunc("DELETE /v1/cart", auth(h.Cart.ClearHandler))
	mux.HandleFunc("POST /v1/cart/items", auth(h.Cart.AddItemHandler))
	mux.HandleFunc("PUT /v1/cart/items/{id}", auth(h.Cart.UpdateItemHandler))
	mux.HandleFunc("DELETE /v1/cart/items/{id}", auth(h.Cart.RemoveItemHandler))

	mux.HandleFunc("POST /v1/checkout", auth(h.Order.CheckoutHandler))
	mux.HandleFunc("GET /v1/orders", auth(h.Order.ListMineHandler))
	mux.HandleFunc("GET /v1/orders/{id}", auth(h.Order.GetHandler))
	mux.HandleFunc("POST /v1/orders/{id}/cancel", auth(h.Order.CancelHandler))

	// --- 4. Rotas administrativas ---
	mux.HandleFunc("POST /v1/admin/products", admin(h.Product.CreateProductHandler))
	mux.HandleFunc("PUT /v1/admin/products/{id}", admin(h.Product.UpdateProductHandler))
	mux.HandleFunc("DELETE /v1/admin/products/{id}", admin(h.Product.DeleteProductHandler))

	mux.HandleFunc("POST /v1/admin/categories", admin(h.Category.CreateHandler))
	mux.HandleFunc("PUT /v1/admin/categories/{id}", admin(h.Category.UpdateHandler))
	mux.HandleFunc("DELETE /v1/admin/categories/{id}", admin(h.Category.DeleteHandler))

	mux.HandleFunc("PUT /v1/admin/settings", admin(h.Settings.UpdateHandler))

	mux.HandleFunc("GET /v1/admin/users", admin(h.User.ListUsersHandler))
	mux.HandleFunc("PUT /v1/admin/users/{id}/admin", admin(h.User.ToggleAdminHandler))
	mux.HandleFunc("DELETE /v1/admin/users/{id}", admin(h.User.DeleteUserHandler))

	mux.HandleFunc("GET /v1/admin/orders", admin(h.Order.AdminListHandler))
	mux.HandleFunc("PUT /v1/admin/orders/{id}/status", admin(h.Order.AdminStatusHandler))

	// --- 5. Middlewares globais (de fora para dentro) ---
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", order.IdempotencyHeader},
		AllowCredentials: true,
	})

	var handler http.Handler = mux
	if opts.Cache != nil && opts.RateLimit > 0 {
		handler = middleware.RateLimiter(opts.Cache, opts.RateLimit, opts.RatePeriod, opts.Logger)(handler)
	}
	handler = corsHandler.Handler(handler)
	handler = middleware.Recoverer(opts.Logger)(handler)
	handler = middleware.RequestLogger(opts.Logger, opts.Metrics)(handler)
	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
