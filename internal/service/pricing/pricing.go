package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
)

// ShippingPolicy calcula o frete a partir do subtotal.
type ShippingPolicy interface {
	Compute(subtotal decimal.Decimal) decimal.Decimal
}

// FlatRate cobra sempre a mesma taxa.
type FlatRate struct {
	Fee decimal.Decimal
}

func (p FlatRate) Compute(subtotal decimal.Decimal) decimal.Decimal {
	return p.Fee
}

// FreeShippingThreshold zera o frete a partir do limite; limite zero equivale a FlatRate.
type FreeShippingThreshold struct {
	Fee       decimal.Decimal
	Threshold decimal.Decimal
}

func (p FreeShippingThreshold) Compute(subtotal decimal.Decimal) decimal.Decimal {
	if p.Threshold.IsPositive() && subtotal.GreaterThanOrEqual(p.Threshold) {
		return decimal.Zero
	}
	return p.Fee
}

// PolicyFor é a regra canônica da loja, usada no carrinho e no checkout.
func PolicyFor(s domain.ShippingSettings) ShippingPolicy {
	return FreeShippingThreshold{Fee: s.FlatFee, Threshold: s.FreeShippingThreshold}
}

// PolicyForMethod aplica a mesma regra com a tarifa e o limite da modalidade escolhida.
// methodID vazio usa a regra padrão da loja.
func PolicyForMethod(s domain.ShippingSettings, methodID string) (ShippingPolicy, error) {
	if methodID == "" {
		return PolicyFor(s), nil
	}
	m, ok := s.Method(methodID)
	if !ok {
		return nil, apperror.NewValidationError(fmt.Sprintf("Modalidade de entrega '%s' indisponível.", methodID))
	}
	return FreeShippingThreshold{Fee: m.Fee, Threshold: m.FreeShippingThreshold}, nil
}

// Quote é o resumo de valores de uma compra.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// NewQuote calcula total = subtotal + frete - desconto.
func NewQuote(subtotal, discount decimal.Decimal, policy ShippingPolicy) (Quote, error) {
	if subtotal.IsNegative() {
		return Quote{}, apperror.NewValidationError("O subtotal não pode ser negativo.")
	}
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return Quote{}, apperror.NewValidationError("Desconto inválido.")
	}

	shipping := policy.Compute(subtotal)
	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(shipping).Sub(discount),
	}, nil
}

// Installment é a exibição de um parcelamento; não altera o total do pedido.
type Installment struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
	Total decimal.Decimal `json:"total"`
}

// SplitInstallments divide total em n parcelas iguais arredondadas em centavos.
func SplitInstallments(total decimal.Decimal, n, max int) (Installment, error) {
	if n < 1 || n > max {
		return Installment{}, apperror.NewValidationError(fmt.Sprintf("O número de parcelas deve estar entre 1 e %d.", max))
	}
	return Installment{
		Count: n,
		Value: total.DivRound(decimal.NewFromInt(int64(n)), 2),
		Total: total,
	}, nil
}

// InstallmentOptions lista as opções de 1 até max parcelas.
func InstallmentOptions(total decimal.Decimal, max int) []Installment {
	out := make([]Installment, 0, max)
	for n := 1; n <= max; n++ {
		inst, _ := SplitInstallments(total, n, max)
		out = append(out, inst)
	}
	return out
}

// SettingsProvider fornece as configurações atuais da loja.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (domain.StoreSettings, error)
}

// Service aplica as regras de preço com as configurações vigentes.
type Service struct {
	settings SettingsProvider
}

// NewService cria o serviço de preços.
func NewService(settings SettingsProvider) *Service {
	return &Service{settings: settings}
}

// Policy retorna a política de frete vigente.
func (s *Service) Policy(ctx context.Context) (ShippingPolicy, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return PolicyFor(settings.Shipping), nil
}

// Quote calcula o resumo com a política vigente, opcionalmente para uma modalidade de entrega.
func (s *Service) Quote(ctx context.Context, subtotal, discount decimal.Decimal, methodID string) (Quote, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return Quote{}, err
	}
	policy, err := PolicyForMethod(settings.Shipping, methodID)
	if err != nil {
		return Quote{}, err
	}
	return NewQuote(subtotal, discount, policy)
}

// ShippingMethods lista as modalidades de entrega ativas.
func (s *Service) ShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return settings.Shipping.ActiveMethods(), nil
}

// Installments calcula uma opção de parcelamento respeitando o máximo configurado.
func (s *Service) Installments(ctx context.Context, total decimal.Decimal, n int) (Installment, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return Installment{}, err
	}
	return SplitInstallments(total, n, settings.MaxInstallments)
}

// InstallmentOptions lista todas as opções permitidas.
func (s *Service) InstallmentOptions(ctx context.Context, total decimal.Decimal) ([]Installment, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return InstallmentOptions(total, settings.MaxInstallments), nil
}
