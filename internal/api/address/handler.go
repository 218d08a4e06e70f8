package address

import (
	"context"
	"net/http"

	"gofarma/internal/domain"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/middleware"
	"gofarma/internal/pkg/response"
)

// AddressService define as operações do caderno de endereços.
type AddressService interface {
	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	AddAddress(ctx context.Context, userID string, in domain.AddressInput) (domain.Address, error)
	UpdateAddress(ctx context.Context, userID, id string, patch domain.AddressPatch) (domain.Address, error)
	RemoveAddress(ctx context.Context, userID, id string) error
	SetDefaultAddress(ctx context.Context, userID, id string) ([]domain.Address, error)
	GetDefaultAddress(ctx context.Context, userID string) (domain.Address, error)
}

// Handler expõe os endereços do usuário autenticado.
type Handler struct {
	Service AddressService
	Logger  logger.Logger
}

// NewHandler cria o handler de endereços.
func NewHandler(svc AddressService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListHandler lida com GET /v1/me/addresses.
// @Summary Lista os endereços do usuário
// @Tags addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Address
// @Router /me/addresses [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	addrs, err := h.Service.ListAddresses(r.Context(), claims.UserID)
	response.Handle(w, r, h.Logger, addrs, err, http.StatusOK)
}

// AddHandler lida com POST /v1/me/addresses.
// @Summary Adiciona um endereço
// @Description O primeiro endereço cadastrado vira o padrão.
// @Tags addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param address body domain.AddressInput true "Endereço"
// @Success 201 {object} domain.Address
// @Failure 400 {object} domain.ErrorResponse "Campos obrigatórios ausentes"
// @Router /me/addresses [post]
func (h *Handler) AddHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	var in domain.AddressInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	a, err := h.Service.AddAddress(r.Context(), claims.UserID, in)
	response.Handle(w, r, h.Logger, a, err, http.StatusCreated)
}

// UpdateHandler lida com PUT /v1/me/addresses/{id}.
// @Summary Atualiza um endereço
// @Tags addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do endereço"
// @Param address body domain.AddressPatch true "Campos a alterar"
// @Success 200 {object} domain.Address
// @Failure 404 {object} domain.ErrorResponse "Endereço não encontrado"
// @Router /me/addresses/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	var patch domain.AddressPatch
	if err := response.DecodeJSON(r, &patch); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	a, err := h.Service.UpdateAddress(r.Context(), claims.UserID, r.PathValue("id"), patch)
	response.Handle(w, r, h.Logger, a, err, http.StatusOK)
}

// RemoveHandler lida com DELETE /v1/me/addresses/{id}.
// @Summary Remove um endereço
// @Tags addresses
// @Security BearerAuth
// @Param id path string true "ID do endereço"
// @Success 204 "Removido"
// @Failure 404 {object} domain.ErrorResponse "Endereço não encontrado"
// @Router /me/addresses/{id} [delete]
func (h *Handler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	err = h.Service.RemoveAddress(r.Context(), claims.UserID, r.PathValue("id"))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// SetDefaultHandler lida com POST /v1/me/addresses/{id}/default.
// @Summary Define o endereço padrão
// @Tags addresses
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do endereço"
// @Success 200 {array} domain.Address
// @Failure 404 {object} domain.ErrorResponse "Endereço não encontrado"
// @Router /me/addresses/{id}/default [post]
func (h *Handler) SetDefaultHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	addrs, err := h.Service.SetDefaultAddress(r.Context(), claims.UserID, r.PathValue("id"))
	response.Handle(w, r, h.Logger, addrs, err, http.StatusOK)
}

// DefaultHandler lida com GET /v1/me/addresses/default.
// @Summary Retorna o endereço padrão (ou o primeiro)
// @Tags addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Address
// @Failure 404 {object} domain.ErrorResponse "Nenhum endereço cadastrado"
// @Router /me/addresses/default [get]
func (h *Handler) DefaultHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	a, err := h.Service.GetDefaultAddress(r.Context(), claims.UserID)
	response.Handle(w, r, h.Logger, a, err, http.StatusOK)
}
