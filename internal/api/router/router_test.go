package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "gofarma/docs"
	"gofarma/internal/api/address"
	"gofarma/internal/api/cart"
	"gofarma/internal/api/category"
	"gofarma/internal/api/order"
	"gofarma/internal/api/product"
	"gofarma/internal/api/router"
	"gofarma/internal/api/settings"
	"gofarma/internal/api/user"
	"gofarma/internal/domain"
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
	"gofarma/internal/pkg/token"
	"gofarma/internal/repository/cartrepo"
	"gofarma/internal/repository/memrepo"
	"gofarma/internal/service/addressservice"
	"gofarma/internal/service/cartservice"
	"gofarma/internal/service/categoryservice"
	"gofarma/internal/service/checkoutservice"
	"gofarma/internal/service/orderservice"
	"gofarma/internal/service/pricing"
	"gofarma/internal/service/productservice"
	"gofarma/internal/service/settingsservice"
	"gofarma/internal/service/userservice"
)

const (
	adminEmail    = "admin@gofarma.com.br"
	adminPassword = "admin123"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewNop()
	store := memrepo.NewStore()
	mem := cache.NewMemoryClient()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	tokens := token.NewService("segredo-de-teste", time.Hour)
	users := userservice.NewService(store.Users, tokens, token.NewDenylist(mem), log)
	require.NoError(t, users.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword))

	defaults := domain.StoreSettings{
		StoreName:       "GoFarma",
		Payments:        domain.PaymentToggles{CreditCard: true, Boleto: true, Pix: true},
		MaxInstallments: 12,
		Shipping: domain.ShippingSettings{
			FlatFee:               decimal.NewFromInt(10),
			FreeShippingThreshold: decimal.NewFromInt(100),
			Methods: []domain.ShippingMethod{
				{ID: "expressa", Name: "Expressa", Fee: decimal.NewFromInt(25), EstimatedDays: 1, Active: true},
			},
		},
	}
	settingsSvc := settingsservice.NewService(store.Settings, defaults, log)
	pricingSvc := pricing.NewService(settingsSvc)
	addresses := addressservice.NewService(store.Addresses, log)
	carts := cartservice.NewService(cartrepo.NewCartRepository(mem, time.Hour, log, m), store.Products, pricingSvc, log)
	orders := orderservice.NewService(store.Orders, log, m)
	checkout := checkoutservice.NewService(carts, addresses, settingsSvc, orders, mem, time.Hour, log)

	h := router.NewRouter(router.Handlers{
		User:     user.NewHandler(users, log),
		Address:  address.NewHandler(addresses, log),
		Cart:     cart.NewHandler(carts, log),
		Order:    order.NewHandler(orders, checkout, log),
		Product:  product.NewHandler(productservice.NewService(store.Products, log), log),
		Category: category.NewHandler(categoryservice.NewService(store.Categories, log), log),
		Settings: settings.NewHandler(settingsSvc, pricingSvc, log),
	}, router.Options{
		Tokens:      tokens,
		Sessions:    users,
		Cache:       mem,
		Metrics:     m,
		Gatherer:    registry,
		Logger:      log,
		CORSOrigins: []string{"http://localhost:5173"},
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c client) do(method, path string, body interface{}, headers ...string) (*http.Response, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp, out.Bytes()
}

func (c client) login(email, password string) client {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/v1/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, resp.StatusCode, string(body))

	var auth domain.AuthResult
	require.NoError(c.t, json.Unmarshal(body, &auth))
	c.token = auth.Token
	return c
}

func TestPingAndInfra(t *testing.T) {
	srv := newServer(t)
	anon := client{t: t, base: srv.URL}

	resp, body := anon.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	resp, _ = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = anon.do(http.MethodGet, "/swagger/doc.json", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthenticationAndPermissions(t *testing.T) {
	srv := newServer(t)
	anon := client{t: t, base: srv.URL}

	resp, _ := anon.do(http.MethodGet, "/v1/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := anon.do(http.MethodPost, "/v1/register", domain.UserRegistration{Name: "Ana", Email: "ana@x.com", Password: "segredo1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	customer := anon.login("ANA@x.com ", "segredo1")
	resp, _ = customer.do(http.MethodGet, "/v1/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	admin := anon.login(adminEmail, adminPassword)
	resp, body = admin.do(http.MethodGet, "/v1/admin/users", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []domain.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 2)

	// logout revoga a sessão
	resp, _ = customer.do(http.MethodPost, "/v1/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = customer.do(http.MethodGet, "/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	srv := newServer(t)
	anon := client{t: t, base: srv.URL}
	admin := anon.login(adminEmail, adminPassword)

	// 1. Admin cadastra um produto
	resp, body := admin.do(http.MethodPost, "/v1/admin/products", domain.Product{
		Name: "Dipirona 500mg", Price: decimal.RequireFromString("12.99"), InStock: true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p domain.Product
	require.NoError(t, json.Unmarshal(body, &p))

	// 2. Cliente monta o carrinho
	resp, _ = anon.do(http.MethodPost, "/v1/register", domain.UserRegistration{Name: "Bia", Email: "bia@x.com", Password: "segredo1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	customer := anon.login("bia@x.com", "segredo1")

	resp, body = customer.do(http.MethodPost, "/v1/cart/items", domain.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var view domain.CartView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "22.99", view.Total.StringFixed(2))

	resp, body = customer.do(http.MethodPost, "/v1/me/addresses", domain.AddressInput{
		Street: "Rua A", Number: "1", Neighborhood: "Centro", City: "São Paulo", State: "SP", ZipCode: "01000-000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// 3. Checkout idempotente
	req := domain.CheckoutRequest{Payment: domain.PaymentRequest{Method: domain.PaymentPix}}
	resp, body = customer.do(http.MethodPost, "/v1/checkout", req, order.IdempotencyHeader, "k1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var o domain.Order
	require.NoError(t, json.Unmarshal(body, &o))
	assert.Equal(t, "22.99", o.Total.StringFixed(2))
	assert.NotEmpty(t, o.Payment.PixCode)

	resp, body = customer.do(http.MethodPost, "/v1/checkout", req, order.IdempotencyHeader, "k1")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var replay domain.Order
	require.NoError(t, json.Unmarshal(body, &replay))
	assert.Equal(t, o.ID, replay.ID)

	// 4. Pedido visível para o dono e para o admin, não para terceiros
	resp, _ = customer.do(http.MethodGet, "/v1/orders/"+o.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = admin.do(http.MethodGet, "/v1/orders/"+o.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = anon.do(http.MethodPost, "/v1/register", domain.UserRegistration{Name: "Caio", Email: "caio@x.com", Password: "segredo1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	other := anon.login("caio@x.com", "segredo1")
	resp, _ = other.do(http.MethodGet, "/v1/orders/"+o.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// 5. Admin despacha; cliente não pode mais cancelar
	resp, body = admin.do(http.MethodPut, "/v1/admin/orders/"+o.ID+"/status", domain.StatusUpdateRequest{Status: domain.StatusShipped})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = customer.do(http.MethodPost, "/v1/orders/"+o.ID+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var apiErr domain.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &apiErr))
	assert.Equal(t, "INVALID_TRANSITION", apiErr.Category)

	resp, body = admin.do(http.MethodGet, "/v1/admin/orders?status=shipped", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var shipped []domain.Order
	require.NoError(t, json.Unmarshal(body, &shipped))
	assert.Len(t, shipped, 1)
}

func TestPricingEndpoints(t *testing.T) {
	srv := newServer(t)
	anon := client{t: t, base: srv.URL}

	resp, body := anon.do(http.MethodGet, "/v1/shipping/quote?subtotal=12.99", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var q pricing.Quote
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Equal(t, "22.99", q.Total.StringFixed(2))

	resp, _ = anon.do(http.MethodGet, "/v1/shipping/quote?subtotal=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = anon.do(http.MethodGet, "/v1/shipping/quote?subtotal=12.99&method=expressa", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &q))
	assert.Equal(t, "37.99", q.Total.StringFixed(2))

	resp, _ = anon.do(http.MethodGet, "/v1/shipping/quote?subtotal=12.99&method=drone", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = anon.do(http.MethodGet, "/v1/shipping/methods", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var methods []domain.ShippingMethod
	require.NoError(t, json.Unmarshal(body, &methods))
	require.Len(t, methods, 1)
	assert.Equal(t, "Expressa", methods[0].Name)

	resp, body = anon.do(http.MethodGet, "/v1/installments?total=100&n=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inst []pricing.Installment
	require.NoError(t, json.Unmarshal(body, &inst))
	require.Len(t, inst, 1)
	assert.Equal(t, "33.33", inst[0].Value.StringFixed(2))

	resp, _ = anon.do(http.MethodGet, "/v1/installments?total=100&n=13", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
