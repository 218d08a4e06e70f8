package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gofarma/internal/api/order"
	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/middleware"
	"gofarma/internal/service/checkoutservice"
)

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, userID string, req domain.CheckoutRequest) (checkoutservice.Result, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(checkoutservice.Result), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) GetOrderForUser(ctx context.Context, id, userID string, isAdmin bool) (domain.Order, error) {
	args := m.Called(ctx, id, userID, isAdmin)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, id, userID string) (domain.Order, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(domain.Order), args.Error(1)
}

func authed(req *http.Request, userID string, role domain.UserRole) *http.Request {
	return req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{UserID: userID, Role: role}))
}

func TestCheckoutHandler_StatusByReplay(t *testing.T) {
	tests := []struct {
		name     string
		replayed bool
		want     int
	}{
		{"pedido novo", false, http.StatusCreated},
		{"repetição da chave", true, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := new(MockCheckoutService)
			h := order.NewHandler(new(MockOrderService), checkout, logger.NewNop())

			expectedReq := domain.CheckoutRequest{
				Payment:        domain.PaymentRequest{Method: domain.PaymentPix},
				IdempotencyKey: "chave-1",
			}
			checkout.On("Checkout", mock.Anything, "u1", expectedReq).
				Return(checkoutservice.Result{Order: domain.Order{ID: "o1"}, Replayed: tt.replayed}, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{"payment":{"method":"pix"}}`))
			req.Header.Set(order.IdempotencyHeader, "  chave-1 ")
			rec := httptest.NewRecorder()
			h.CheckoutHandler(rec, authed(req, "u1", domain.RoleUser))

			assert.Equal(t, tt.want, rec.Code)
			var o domain.Order
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))
			assert.Equal(t, "o1", o.ID)
			checkout.AssertExpectations(t)
		})
	}
}

func TestCheckoutHandler_Errors(t *testing.T) {
	checkout := new(MockCheckoutService)
	h := order.NewHandler(new(MockOrderService), checkout, logger.NewNop())

	// sem claims
	rec := httptest.NewRecorder()
	h.CheckoutHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// corpo inválido
	rec = httptest.NewRecorder()
	h.CheckoutHandler(rec, authed(httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{`)), "u1", domain.RoleUser))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	checkout.On("Checkout", mock.Anything, "u1", mock.Anything).
		Return(checkoutservice.Result{}, apperror.NewConflictError("Checkout em andamento."))
	rec = httptest.NewRecorder()
	h.CheckoutHandler(rec, authed(httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(`{}`)), "u1", domain.RoleUser))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetHandler_PassesAdminFlag(t *testing.T) {
	orders := new(MockOrderService)
	h := order.NewHandler(orders, new(MockCheckoutService), logger.NewNop())
	orders.On("GetOrderForUser", mock.Anything, "o1", "adm", true).Return(domain.Order{ID: "o1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/o1", nil)
	req.SetPathValue("id", "o1")
	rec := httptest.NewRecorder()
	h.GetHandler(rec, authed(req, "adm", domain.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	orders.AssertExpectations(t)
}

func TestAdminListHandler_StatusFilter(t *testing.T) {
	orders := new(MockOrderService)
	h := order.NewHandler(orders, new(MockCheckoutService), logger.NewNop())
	orders.On("ListOrdersByStatus", mock.Anything, domain.StatusPending).Return([]domain.Order{{ID: "o1"}}, nil)
	orders.On("ListOrders", mock.Anything).Return([]domain.Order{{ID: "o1"}, {ID: "o2"}}, nil)

	rec := httptest.NewRecorder()
	h.AdminListHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/orders?status=pending", nil))
	var filtered []domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&filtered))
	assert.Len(t, filtered, 1)

	rec = httptest.NewRecorder()
	h.AdminListHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/orders", nil))
	var all []domain.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Len(t, all, 2)
}

func TestCancelHandler_InvalidTransition(t *testing.T) {
	orders := new(MockOrderService)
	h := order.NewHandler(orders, new(MockCheckoutService), logger.NewNop())
	orders.On("CancelOrder", mock.Anything, "o1", "u1").
		Return(domain.Order{}, apperror.NewInvalidTransitionError("shipped", "cancelled"))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/o1/cancel", nil)
	req.SetPathValue("id", "o1")
	rec := httptest.NewRecorder()
	h.CancelHandler(rec, authed(req, "u1", domain.RoleUser))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
