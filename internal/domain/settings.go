package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreSettings é o registro único de configurações mantido pelo painel administrativo.
type StoreSettings struct {
	StoreName       string           `json:"storeName"`
	Contact         ContactSettings  `json:"contact"`
	SEO             SEOSettings      `json:"seo"`
	Payments        PaymentToggles   `json:"payments"`
	MaxInstallments int              `json:"maxInstallments"`
	Shipping        ShippingSettings `json:"shipping"`
	Policies        PolicyTexts      `json:"policies"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ContactSettings são os canais de atendimento da loja.
type ContactSettings struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Address  string `json:"address,omitempty"`
}

// SEOSettings alimenta as meta tags da loja.
type SEOSettings struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

// PaymentToggles liga/desliga cada forma de pagamento no checkout.
type PaymentToggles struct {
	CreditCard bool `json:"creditCard"`
	Boleto     bool `json:"boleto"`
	Pix        bool `json:"pix"`
}

// Enabled informa se a forma de pagamento está habilitada.
func (p PaymentToggles) Enabled(m PaymentMethod) bool {
	switch m {
	case PaymentCreditCard:
		return p.CreditCard
	case PaymentBoleto:
		return p.Boleto
	case PaymentPix:
		return p.Pix
	}
	return false
}

// ShippingSettings parametriza a política de frete.
// FreeShippingThreshold zero desativa o frete grátis (tarifa fixa sempre).
// Methods são as modalidades de entrega mantidas pelo admin; sem modalidade escolhida,
// valem FlatFee e FreeShippingThreshold.
type ShippingSettings struct {
	FlatFee               decimal.Decimal  `json:"flatFee"`
	FreeShippingThreshold decimal.Decimal  `json:"freeShippingThreshold"`
	Methods               []ShippingMethod `json:"methods"`
}

// ShippingMethod é uma modalidade de entrega (ex: "Expressa", "Retirada na loja").
type ShippingMethod struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	Fee                   decimal.Decimal `json:"fee"`
	FreeShippingThreshold decimal.Decimal `json:"freeShippingThreshold"`
	EstimatedDays         int             `json:"estimatedDays"`
	Active                bool            `json:"active"`
}

// ActiveMethods lista as modalidades disponíveis para o cliente.
func (s ShippingSettings) ActiveMethods() []ShippingMethod {
	out := []ShippingMethod{}
	for _, m := range s.Methods {
		if m.Active {
			out = append(out, m)
		}
	}
	return out
}

// Method busca uma modalidade ativa pelo ID.
func (s ShippingSettings) Method(id string) (ShippingMethod, bool) {
	for _, m := range s.Methods {
		if m.ID == id && m.Active {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

// PolicyTexts são os textos institucionais exibidos no rodapé.
type PolicyTexts struct {
	Privacy string `json:"privacy,omitempty"`
	Terms   string `json:"terms,omitempty"`
	Returns string `json:"returns,omitempty"`
}
