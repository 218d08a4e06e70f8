package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus é o estado de um pedido.
//
//	pending -> confirmed -> processing -> shipped -> delivered
//	cancelled é terminal e alcançável a partir de pending, confirmed e processing.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lista os status na ordem do fluxo feliz, seguida de cancelled.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// IsValid informa se o status é conhecido.
func (s OrderStatus) IsValid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Cancellable informa se o cliente pode cancelar um pedido neste status.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing:
		return true
	}
	return false
}

// StatusEntry é uma entrada do histórico de status (somente acréscimo, cronológico).
type StatusEntry struct {
	Status OrderStatus `json:"status"`
	Date   time.Time   `json:"date"`
}

// Order é um pedido. Itens, endereço e pagamento são cópias congeladas na criação;
// Total é calculado uma única vez em NewOrder.Build e nunca recalculado.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Status          OrderStatus     `json:"status"`
	StatusHistory   []StatusEntry   `json:"statusHistory"`
	Items           []CartItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	ShippingMethod  string          `json:"shippingMethod,omitempty"`
	DeliveryAddress Address         `json:"deliveryAddress"`
	Payment         PaymentInfo     `json:"payment"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Transition muda o status e acrescenta a entrada correspondente ao histórico.
func (o *Order) Transition(status OrderStatus, at time.Time) {
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: status, Date: at})
	o.UpdatedAt = at
}

// NewOrder reúne os dados necessários para materializar um pedido.
type NewOrder struct {
	UserID          string
	Items           []CartItem
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Discount        decimal.Decimal
	ShippingMethod  string
	DeliveryAddress Address
	Payment         PaymentInfo
}

// Build cria o pedido em pending com total = subtotal + shipping - discount.
func (n NewOrder) Build(id string, now time.Time) Order {
	items := make([]CartItem, len(n.Items))
	copy(items, n.Items)

	return Order{
		ID:              id,
		UserID:          n.UserID,
		Status:          StatusPending,
		StatusHistory:   []StatusEntry{{Status: StatusPending, Date: now}},
		Items:           items,
		Subtotal:        n.Subtotal,
		Shipping:        n.Shipping,
		Discount:        n.Discount,
		Total:           n.Subtotal.Add(n.Shipping).Sub(n.Discount),
		ShippingMethod:  n.ShippingMethod,
		DeliveryAddress: n.DeliveryAddress,
		Payment:         n.Payment,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// StatusUpdateRequest é o payload de PUT /v1/admin/orders/{id}/status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status"`
}
