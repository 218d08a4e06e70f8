package cart

import (
	"context"
	"net/http"

	"gofarma/internal/domain"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/middleware"
	"gofarma/internal/pkg/response"
)

// CartService define as operações do carrinho.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.CartView, error)
	AddItem(ctx context.Context, userID string, req domain.AddToCartRequest) (domain.CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (domain.CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (domain.CartView, error)
	ClearCart(ctx context.Context, userID string) error
}

// Handler expõe o carrinho do usuário autenticado.
type Handler struct {
	Service CartService
	Logger  logger.Logger
}

// NewHandler cria o handler do carrinho.
func NewHandler(svc CartService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// GetHandler lida com GET /v1/cart.
// @Summary Retorna o carrinho com subtotal, frete e total
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.CartView
// @Router /cart [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	view, err := h.Service.GetCart(r.Context(), claims.UserID)
	response.Handle(w, r, h.Logger, view, err, http.StatusOK)
}

// AddItemHandler lida com POST /v1/cart/items.
// @Summary Adiciona um produto ao carrinho
// @Description Se o produto já estiver no carrinho, soma a quantidade.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body domain.AddToCartRequest true "Produto e quantidade"
// @Success 200 {object} domain.CartView
// @Failure 400 {object} domain.ErrorResponse "Produto indisponível"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /cart/items [post]
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	var req domain.AddToCartRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	view, err := h.Service.AddItem(r.Context(), claims.UserID, req)
	response.Handle(w, r, h.Logger, view, err, http.StatusOK)
}

// UpdateItemHandler lida com PUT /v1/cart/items/{id}.
// @Summary Define a quantidade de um item (menor que 1 remove)
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param body body domain.UpdateCartItemRequest true "Nova quantidade"
// @Success 200 {object} domain.CartView
// @Router /cart/items/{id} [put]
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	var req domain.UpdateCartItemRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	view, err := h.Service.UpdateItemQuantity(r.Context(), claims.UserID, r.PathValue("id"), req.Quantity)
	response.Handle(w, r, h.Logger, view, err, http.StatusOK)
}

// RemoveItemHandler lida com DELETE /v1/cart/items/{id}.
// @Summary Remove um item do carrinho
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.CartView
// @Router /cart/items/{id} [delete]
func (h *Handler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	view, err := h.Service.RemoveItem(r.Context(), claims.UserID, r.PathValue("id"))
	response.Handle(w, r, h.Logger, view, err, http.StatusOK)
}

// ClearHandler lida com DELETE /v1/cart.
// @Summary Esvazia o carrinho
// @Tags cart
// @Security BearerAuth
// @Success 204 "Carrinho vazio"
// @Router /cart [delete]
func (h *Handler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	err = h.Service.ClearCart(r.Context(), claims.UserID)
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
