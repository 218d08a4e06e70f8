package settings

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/response"
	"gofarma/internal/service/pricing"
)

// SettingsService lê e grava as configurações da loja.
type SettingsService interface {
	GetSettings(ctx context.Context) (domain.StoreSettings, error)
	UpdateSettings(ctx context.Context, s domain.StoreSettings) (domain.StoreSettings, error)
}

// PricingService expõe frete e parcelamento para a vitrine.
type PricingService interface {
	Quote(ctx context.Context, subtotal, discount decimal.Decimal, methodID string) (pricing.Quote, error)
	ShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)
	Installments(ctx context.Context, total decimal.Decimal, n int) (pricing.Installment, error)
	InstallmentOptions(ctx context.Context, total decimal.Decimal) ([]pricing.Installment, error)
}

// Handler agrupa configurações da loja e as calculadoras públicas de preço.
type Handler struct {
	Settings SettingsService
	Pricing  PricingService
	Logger   logger.Logger
}

func NewHandler(settings SettingsService, pricing PricingService, log logger.Logger) *Handler {
	return &Handler{Settings: settings, Pricing: pricing, Logger: log}
}

// GetHandler lida com GET /v1/settings.
// @Summary Retorna as configurações públicas da loja
// @Tags settings
// @Produce json
// @Success 200 {object} domain.StoreSettings
// @Router /settings [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.GetSettings(r.Context())
	response.Handle(w, r, h.Logger, s, err, http.StatusOK)
}

// UpdateHandler lida com PUT /v1/admin/settings.
// @Summary Grava as configurações da loja (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body domain.StoreSettings true "Configurações"
// @Success 200 {object} domain.StoreSettings
// @Failure 400 {object} domain.ErrorResponse "Configurações inválidas"
// @Router /admin/settings [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var s domain.StoreSettings
	if err := response.DecodeJSON(r, &s); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	saved, err := h.Settings.UpdateSettings(r.Context(), s)
	response.Handle(w, r, h.Logger, saved, err, http.StatusOK)
}

func decimalParam(r *http.Request, name string) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return decimal.Zero, apperror.NewValidationError("Parâmetro '" + name + "' é obrigatório.")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.NewValidationError("Parâmetro '" + name + "' deve ser um valor decimal.")
	}
	return d, nil
}

// ShippingMethodsHandler lida com GET /v1/shipping/methods.
// @Summary Lista as modalidades de entrega ativas
// @Tags pricing
// @Produce json
// @Success 200 {array} domain.ShippingMethod
// @Router /shipping/methods [get]
func (h *Handler) ShippingMethodsHandler(w http.ResponseWriter, r *http.Request) {
	methods, err := h.Pricing.ShippingMethods(r.Context())
	response.Handle(w, r, h.Logger, methods, err, http.StatusOK)
}

// ShippingQuoteHandler lida com GET /v1/shipping/quote?subtotal=&method=.
// @Summary Calcula frete e total para um subtotal
// @Tags pricing
// @Produce json
// @Param subtotal query string true "Subtotal em reais (ex: 12.99)"
// @Param method query string false "ID da modalidade de entrega"
// @Success 200 {object} pricing.Quote
// @Failure 400 {object} domain.ErrorResponse "Subtotal inválido"
// @Router /shipping/quote [get]
func (h *Handler) ShippingQuoteHandler(w http.ResponseWriter, r *http.Request) {
	subtotal, err := decimalParam(r, "subtotal")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	q, err := h.Pricing.Quote(r.Context(), subtotal, decimal.Zero, r.URL.Query().Get("method"))
	response.Handle(w, r, h.Logger, q, err, http.StatusOK)
}

// InstallmentsHandler lida com GET /v1/installments?total=&n=.
// @Summary Simula parcelamento no cartão
// @Description Sem n, lista todas as opções até o máximo configurado.
// @Tags pricing
// @Produce json
// @Param total query string true "Total do pedido"
// @Param n query int false "Número de parcelas"
// @Success 200 {array} pricing.Installment
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /installments [get]
func (h *Handler) InstallmentsHandler(w http.ResponseWriter, r *http.Request) {
	total, err := decimalParam(r, "total")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	raw := r.URL.Query().Get("n")
	if raw == "" {
		opts, err := h.Pricing.InstallmentOptions(r.Context(), total)
		response.Handle(w, r, h.Logger, opts, err, http.StatusOK)
		return
	}

	n, convErr := strconv.Atoi(raw)
	if convErr != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Parâmetro 'n' deve ser inteiro."))
		return
	}
	inst, err := h.Pricing.Installments(r.Context(), total, n)
	response.Handle(w, r, h.Logger, []pricing.Installment{inst}, err, http.StatusOK)
}
