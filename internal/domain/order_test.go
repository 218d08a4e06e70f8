package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofarma/internal/domain"
)

func TestNewOrderBuild(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []domain.CartItem{item("p1", "12.99", 1)}

	order := domain.NewOrder{
		UserID:   "u1",
		Items:    items,
		Subtotal: decimal.RequireFromString("12.99"),
		Shipping: decimal.RequireFromString("10"),
		Discount: decimal.Zero,
		Payment:  domain.PaymentInfo{Method: domain.PaymentPix, PixCode: "abc"},
	}.Build("o1", now)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("22.99").Equal(order.Total))
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, domain.StatusEntry{Status: domain.StatusPending, Date: now}, order.StatusHistory[0])
	assert.Equal(t, 1, order.Version)

	// os itens do pedido são um snapshot
	items[0].Quantity = 50
	assert.Equal(t, 1, order.Items[0].Quantity)
}

func TestNewOrderBuild_AppliesDiscount(t *testing.T) {
	order := domain.NewOrder{
		UserID:   "u1",
		Items:    []domain.CartItem{item("p1", "50", 2)},
		Subtotal: decimal.RequireFromString("100"),
		Shipping: decimal.RequireFromString("0"),
		Discount: decimal.RequireFromString("15.50"),
	}.Build("o1", time.Now())

	assert.Equal(t, "84.5", order.Total.String())
}

func TestOrderTransition_AppendsHistory(t *testing.T) {
	t0 := time.Now()
	order := domain.NewOrder{UserID: "u1", Items: []domain.CartItem{item("p1", "1", 1)}}.Build("o1", t0)

	t1 := t0.Add(time.Minute)
	order.Transition(domain.StatusCancelled, t1)

	assert.Equal(t, domain.StatusCancelled, order.Status)
	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, domain.StatusEntry{Status: domain.StatusCancelled, Date: t1}, order.StatusHistory[1])
	assert.Equal(t, t1, order.UpdatedAt)
}

func TestOrderStatusCancellable(t *testing.T) {
	cancellable := map[domain.OrderStatus]bool{
		domain.StatusPending:    true,
		domain.StatusConfirmed:  true,
		domain.StatusProcessing: true,
		domain.StatusShipped:    false,
		domain.StatusDelivered:  false,
		domain.StatusCancelled:  false,
	}
	for status, want := range cancellable {
		assert.Equal(t, want, status.Cancellable(), string(status))
	}
}

func TestOrderStatusIsValid(t *testing.T) {
	assert.True(t, domain.StatusShipped.IsValid())
	assert.False(t, domain.OrderStatus("lost").IsValid())
	assert.False(t, domain.OrderStatus("").IsValid())
}
