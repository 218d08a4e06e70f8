package orderservice_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
	"gofarma/internal/repository/memrepo"
	"gofarma/internal/service/orderservice"
	"gofarma/internal/service/pricing"
)

func newService() (*orderservice.Service, *memrepo.OrderRepository) {
	repo := memrepo.NewStore().Orders
	return orderservice.NewService(repo, logger.NewNop(), metrics.New(prometheus.NewRegistry())), repo
}

func dipirona() domain.CartItem {
	return domain.CartItem{ID: "p1", Name: "Dipirona 500mg", Price: decimal.RequireFromString("12.99"), Quantity: 1}
}

func newOrder(userID string) domain.NewOrder {
	return domain.NewOrder{
		UserID:          userID,
		Items:           []domain.CartItem{dipirona()},
		Subtotal:        decimal.RequireFromString("12.99"),
		Shipping:        decimal.NewFromInt(10),
		DeliveryAddress: domain.Address{ID: "a1", Street: "Rua A", City: "São Paulo", State: "SP"},
		Payment:         domain.PaymentInfo{Method: domain.PaymentPix, PixCode: "PIX"},
	}
}

func TestCreateOrder_EndToEndTotal(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cart := domain.Cart{}
	cart.Add(dipirona())
	quote, err := pricing.NewQuote(cart.Subtotal(), decimal.Zero, pricing.FreeShippingThreshold{
		Fee:       decimal.NewFromInt(10),
		Threshold: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, domain.NewOrder{
		UserID:   "u1",
		Items:    cart.Snapshot(),
		Subtotal: quote.Subtotal,
		Shipping: quote.Shipping,
		Payment:  domain.PaymentInfo{Method: domain.PaymentBoleto, BoletoCode: "123"},
	})
	require.NoError(t, err)

	assert.Equal(t, "22.99", order.Total.StringFixed(2))
	assert.Equal(t, domain.StatusPending, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, domain.StatusPending, order.StatusHistory[0].Status)
	assert.NotEmpty(t, order.ID)

	fetched, err := svc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(fetched.Total))
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	in := newOrder("u1")
	in.Items = nil
	_, err := svc.CreateOrder(ctx, in)
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.CreateOrder(ctx, newOrder(""))
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

func TestGetOrderByID_InvalidAndMissing(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.GetOrderByID(ctx, "nao-e-uuid")
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = svc.CancelOrder(ctx, "nao-e-uuid", "u1")
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = svc.GetOrderByID(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestGetOrderForUser(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, newOrder("dono"))
	require.NoError(t, err)

	_, err = svc.GetOrderForUser(ctx, order.ID, "dono", false)
	assert.NoError(t, err)
	_, err = svc.GetOrderForUser(ctx, order.ID, "admin", true)
	assert.NoError(t, err)
	_, err = svc.GetOrderForUser(ctx, order.ID, "outro", false)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestCancelOrder(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, newOrder("u1"))
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID, "u2")
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	cancelled, err := svc.CancelOrder(ctx, order.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Len(t, cancelled.StatusHistory, 2)
	assert.Equal(t, domain.StatusCancelled, cancelled.StatusHistory[1].Status)
	assert.True(t, order.Total.Equal(cancelled.Total))

	// cancelado é terminal
	_, err = svc.CancelOrder(ctx, order.ID, "u1")
	assert.True(t, apperror.IsRule(err, apperror.RuleInvalidTransition))
}

func TestCancelOrder_AllowedBeforeShipping(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.StatusPending, domain.StatusConfirmed, domain.StatusProcessing} {
		t.Run(string(status), func(t *testing.T) {
			svc, _ := newService()
			ctx := context.Background()

			order, err := svc.CreateOrder(ctx, newOrder("u1"))
			require.NoError(t, err)
			if status != domain.StatusPending {
				order, err = svc.UpdateOrderStatus(ctx, order.ID, status)
				require.NoError(t, err)
			}
			before := len(order.StatusHistory)

			cancelled, err := svc.CancelOrder(ctx, order.ID, "u1")
			require.NoError(t, err)

			assert.Equal(t, domain.StatusCancelled, cancelled.Status)
			require.Len(t, cancelled.StatusHistory, before+1)
			assert.Equal(t, domain.StatusCancelled, cancelled.StatusHistory[before].Status)
			assert.True(t, order.Total.Equal(cancelled.Total))
		})
	}
}

func TestCancelOrder_RejectedKeepsHistory(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.StatusShipped, domain.StatusDelivered, domain.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			svc, _ := newService()
			ctx := context.Background()

			order, err := svc.CreateOrder(ctx, newOrder("u1"))
			require.NoError(t, err)
			order, err = svc.UpdateOrderStatus(ctx, order.ID, status)
			require.NoError(t, err)

			_, err = svc.CancelOrder(ctx, order.ID, "u1")
			assert.True(t, apperror.IsRule(err, apperror.RuleInvalidTransition))

			current, err := svc.GetOrderByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, status, current.Status)
			assert.Len(t, current.StatusHistory, len(order.StatusHistory))
			assert.Equal(t, order.Version, current.Version)
		})
	}
}

func TestCancelOrder_RejectedAfterShipping(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.StatusShipped, domain.StatusDelivered} {
		t.Run(string(status), func(t *testing.T) {
			svc, _ := newService()
			ctx := context.Background()

			order, err := svc.CreateOrder(ctx, newOrder("u1"))
			require.NoError(t, err)
			_, err = svc.UpdateOrderStatus(ctx, order.ID, status)
			require.NoError(t, err)

			_, err = svc.CancelOrder(ctx, order.ID, "u1")
			assert.True(t, apperror.IsRule(err, apperror.RuleInvalidTransition))

			current, err := svc.GetOrderByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, status, current.Status)
		})
	}
}

func TestUpdateOrderStatus_AdminOverride(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, newOrder("u1"))
	require.NoError(t, err)

	steps := []domain.OrderStatus{domain.StatusConfirmed, domain.StatusShipped, domain.StatusProcessing}
	var updated domain.Order
	for _, st := range steps {
		updated, err = svc.UpdateOrderStatus(ctx, order.ID, st)
		require.NoError(t, err)
	}

	assert.Equal(t, domain.StatusProcessing, updated.Status)
	assert.Len(t, updated.StatusHistory, 4)
	assert.True(t, order.Total.Equal(updated.Total))

	_, err = svc.UpdateOrderStatus(ctx, order.ID, "teleported")
	assert.IsType(t, &apperror.ValidationError{}, err)
}

// conflictOnce simula outra escrita vencendo a corrida na primeira tentativa.
type conflictOnce struct {
	*memrepo.OrderRepository
	failed bool
}

func (c *conflictOnce) UpdateStatus(ctx context.Context, o domain.Order) (domain.Order, error) {
	if !c.failed {
		c.failed = true
		return domain.Order{}, apperror.NewConflictError("versão desatualizada")
	}
	return c.OrderRepository.UpdateStatus(ctx, o)
}

func TestCancelOrder_RetriesOnConflict(t *testing.T) {
	repo := &conflictOnce{OrderRepository: memrepo.NewStore().Orders}
	svc := orderservice.NewService(repo, logger.NewNop(), nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, newOrder("u1"))
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(ctx, order.ID, "u1")
	require.NoError(t, err)
	assert.True(t, repo.failed)
	assert.Len(t, cancelled.StatusHistory, 2)
}

func TestListOrders(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, err := svc.CreateOrder(ctx, newOrder("u1"))
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, newOrder("u1"))
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, newOrder("u2"))
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, a.ID, "u1")
	require.NoError(t, err)

	mine, err := svc.ListOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cancelled, err := svc.ListOrdersByStatus(ctx, domain.StatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a.ID, cancelled[0].ID)

	_, err = svc.ListOrdersByStatus(ctx, "bogus")
	assert.IsType(t, &apperror.ValidationError{}, err)
}
