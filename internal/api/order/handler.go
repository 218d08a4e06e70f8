package order

import (
	"context"
	"net/http"
	"strings"

	"gofarma/internal/domain"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/middleware"
	"gofarma/internal/pkg/response"
	"gofarma/internal/service/checkoutservice"
)

// IdempotencyHeader carrega a chave que torna o checkout repetível sem duplicar pedidos.
const IdempotencyHeader = "Idempotency-Key"

// OrderService define as operações de pedido usadas pela API.
type OrderService interface {
	GetOrderForUser(ctx context.Context, id, userID string, isAdmin bool) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	CancelOrder(ctx context.Context, id, userID string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error)
}

// CheckoutService converte o carrinho em pedido.
type CheckoutService interface {
	Checkout(ctx context.Context, userID string, req domain.CheckoutRequest) (checkoutservice.Result, error)
}

// Handler agrupa checkout e pedidos.
type Handler struct {
	Orders   OrderService
	Checkout CheckoutService
	Logger   logger.Logger
}

// NewHandler cria o handler de pedidos.
func NewHandler(orders OrderService, checkout CheckoutService, log logger.Logger) *Handler {
	return &Handler{Orders: orders, Checkout: checkout, Logger: log}
}

// CheckoutHandler lida com POST /v1/checkout.
// @Summary Finaliza a compra
// @Description Converte o carrinho em pedido. Repetir a mesma Idempotency-Key devolve o pedido original com status 200.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Chave de idempotência"
// @Param checkout body domain.CheckoutRequest true "Endereço e pagamento"
// @Success 201 {object} domain.Order "Pedido criado"
// @Success 200 {object} domain.Order "Pedido já criado com esta chave"
// @Failure 400 {object} domain.ErrorResponse "Carrinho vazio, endereço ou pagamento inválido"
// @Failure 409 {object} domain.ErrorResponse "Checkout em andamento com a mesma chave"
// @Router /checkout [post]
func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	var req domain.CheckoutRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	result, err := h.Checkout.Checkout(r.Context(), claims.UserID, req)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	response.Handle(w, r, h.Logger, result.Order, nil, status)
}

// ListMineHandler lida com GET /v1/orders.
// @Summary Lista os pedidos do usuário (mais recentes primeiro)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (h *Handler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	orders, err := h.Orders.ListOrdersByUser(r.Context(), claims.UserID)
	response.Handle(w, r, h.Logger, orders, err, http.StatusOK)
}

// GetHandler lida com GET /v1/orders/{id}.
// @Summary Detalha um pedido (dono ou admin)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Failure 403 {object} domain.ErrorResponse "Pedido de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Pedido não encontrado"
// @Router /orders/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.GetOrderForUser(r.Context(), r.PathValue("id"), claims.UserID, claims.IsAdmin())
	response.Handle(w, r, h.Logger, o, err, http.StatusOK)
}

// CancelHandler lida com POST /v1/orders/{id}/cancel.
// @Summary Cancela o próprio pedido
// @Description Permitido apenas enquanto o pedido está pending, confirmed ou processing.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Failure 403 {object} domain.ErrorResponse "Pedido de outro usuário"
// @Failure 422 {object} domain.ErrorResponse "Pedido não pode mais ser cancelado"
// @Router /orders/{id}/cancel [post]
func (h *Handler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.CancelOrder(r.Context(), r.PathValue("id"), claims.UserID)
	response.Handle(w, r, h.Logger, o, err, http.StatusOK)
}

// AdminListHandler lida com GET /v1/admin/orders?status=.
// @Summary Lista todos os pedidos (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filtra por status"
// @Success 200 {array} domain.Order
// @Failure 400 {object} domain.ErrorResponse "Status desconhecido"
// @Router /admin/orders [get]
func (h *Handler) AdminListHandler(w http.ResponseWriter, r *http.Request) {
	var (
		orders []domain.Order
		err    error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		orders, err = h.Orders.ListOrdersByStatus(r.Context(), domain.OrderStatus(status))
	} else {
		orders, err = h.Orders.ListOrders(r.Context())
	}
	response.Handle(w, r, h.Logger, orders, err, http.StatusOK)
}

// AdminStatusHandler lida com PUT /v1/admin/orders/{id}/status.
// @Summary Altera o status de um pedido (admin)
// @Description Override administrativo: qualquer status conhecido é aceito; o total não muda.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Param body body domain.StatusUpdateRequest true "Novo status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} domain.ErrorResponse "Status desconhecido"
// @Failure 404 {object} domain.ErrorResponse "Pedido não encontrado"
// @Router /admin/orders/{id}/status [put]
func (h *Handler) AdminStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	o, err := h.Orders.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	response.Handle(w, r, h.Logger, o, err, http.StatusOK)
}
