package domain

// PaymentMethod é a forma de pagamento escolhida no checkout.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentBoleto     PaymentMethod = "boleto"
	PaymentPix        PaymentMethod = "pix"
)

// IsValid informa se a forma de pagamento é conhecida.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCreditCard, PaymentBoleto, PaymentPix:
		return true
	}
	return false
}

// PaymentInfo é uma união discriminada por Method: só os campos do método escolhido são preenchidos.
type PaymentInfo struct {
	Method         PaymentMethod `json:"method"`
	Installments   int           `json:"installments,omitempty"`
	CardLastDigits string        `json:"cardLastDigits,omitempty"`
	PixCode        string        `json:"pixCode,omitempty"`
	BoletoCode     string        `json:"boletoCode,omitempty"`
}

// PaymentRequest é a escolha de pagamento enviada no checkout.
// O número do cartão é usado apenas para extrair os quatro últimos dígitos.
type PaymentRequest struct {
	Method       PaymentMethod `json:"method"`
	Installments int           `json:"installments,omitempty"`
	CardNumber   string        `json:"cardNumber,omitempty"`
}

// CheckoutRequest é o payload de POST /v1/checkout. Sem AddressID, usa o endereço padrão.
// A chave de idempotência vem do cabeçalho Idempotency-Key.
type CheckoutRequest struct {
	AddressID        string         `json:"addressId,omitempty"`
	ShippingMethodID string         `json:"shippingMethodId,omitempty"`
	Payment          PaymentRequest `json:"payment"`
	IdempotencyKey   string         `json:"-"`
}
