package checkoutservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/service/pricing"
)

// CartSource lê e esvazia o carrinho do usuário.
type CartSource interface {
	Cart(ctx context.Context, userID string) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// AddressResolver escolhe o endereço de entrega.
type AddressResolver interface {
	ResolveDeliveryAddress(ctx context.Context, userID, addressID string) (domain.Address, error)
}

// SettingsProvider fornece as formas de pagamento habilitadas, o frete e o limite de parcelas.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (domain.StoreSettings, error)
}

// OrderCreator materializa e recupera pedidos.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in domain.NewOrder) (domain.Order, error)
	GetOrderByID(ctx context.Context, id string) (domain.Order, error)
}

const (
	idempotencyKey     = "checkout:idem:%s:%s"
	idempotencyPending = "pending"
	maxIdempotencyKey  = 128
)

// Result é o pedido criado; Replayed indica que a chave de idempotência já tinha sido usada.
type Result struct {
	Order    domain.Order `json:"order"`
	Replayed bool         `json:"replayed"`
}

// Service orquestra carrinho, endereço, pagamento, preço e pedido.
type Service struct {
	carts     CartSource
	addresses AddressResolver
	settings  SettingsProvider
	orders    OrderCreator
	cache     cache.Client
	idemTTL   time.Duration
	logger    logger.Logger
}

// NewService cria o serviço de checkout.
func NewService(carts CartSource, addresses AddressResolver, settings SettingsProvider, orders OrderCreator,
	c cache.Client, idemTTL time.Duration, log logger.Logger) *Service {
	return &Service{
		carts:     carts,
		addresses: addresses,
		settings:  settings,
		orders:    orders,
		cache:     c,
		idemTTL:   idemTTL,
		logger:    log,
	}
}

// Checkout converte o carrinho em pedido.
func (s *Service) Checkout(ctx context.Context, userID string, req domain.CheckoutRequest) (Result, error) {
	if userID == "" {
		return Result{}, apperror.NewUnauthorizedError("Autenticação necessária para finalizar a compra.")
	}
	if len(req.IdempotencyKey) > maxIdempotencyKey {
		return Result{}, apperror.NewValidationError("Idempotency-Key muito longa.")
	}

	if req.IdempotencyKey == "" {
		order, err := s.placeOrder(ctx, userID, req)
		return Result{Order: order}, err
	}

	// 1. Reserva da chave de idempotência
	key := fmt.Sprintf(idempotencyKey, userID, req.IdempotencyKey)
	claimed, err := s.cache.SetNX(ctx, key, idempotencyPending, s.idemTTL)
	if err != nil {
		return Result{}, apperror.NewCacheError("Falha ao reservar a chave de idempotência", err)
	}
	if !claimed {
		return s.replay(ctx, key)
	}

	order, err := s.placeOrder(ctx, userID, req)
	if err != nil {
		// Libera a chave para que o cliente possa tentar de novo.
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Falha ao liberar a chave de idempotência.", map[string]interface{}{"key": key, "error": delErr.Error()})
		}
		return Result{}, err
	}

	if err := s.cache.Set(ctx, key, order.ID, s.idemTTL); err != nil {
		s.logger.Warn("Falha ao gravar o pedido na chave de idempotência.", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return Result{Order: order}, nil
}

func (s *Service) replay(ctx context.Context, key string) (Result, error) {
	value, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		// A tentativa anterior falhou e liberou a chave entre o SETNX e o GET.
		return Result{}, apperror.NewConflictError("Checkout anterior com esta chave não foi concluído. Tente novamente.")
	}
	if err != nil {
		return Result{}, apperror.NewCacheError("Falha ao ler a chave de idempotência", err)
	}
	if value == idempotencyPending {
		return Result{}, apperror.NewConflictError("Já existe um checkout em andamento com esta chave.")
	}

	order, err := s.orders.GetOrderByID(ctx, value)
	if err != nil {
		return Result{}, err
	}
	return Result{Order: order, Replayed: true}, nil
}

func (s *Service) placeOrder(ctx context.Context, userID string, req domain.CheckoutRequest) (domain.Order, error) {
	// 2. Carrinho e endereço
	cart, err := s.carts.Cart(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(cart.Items) == 0 {
		return domain.Order{}, apperror.NewValidationError("O carrinho está vazio.")
	}

	address, err := s.addresses.ResolveDeliveryAddress(ctx, userID, req.AddressID)
	if err != nil {
		return domain.Order{}, err
	}

	// 3. Pagamento e preço
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	policy, err := pricing.PolicyForMethod(settings.Shipping, req.ShippingMethodID)
	if err != nil {
		return domain.Order{}, err
	}
	var methodName string
	if m, ok := settings.Shipping.Method(req.ShippingMethodID); ok {
		methodName = m.Name
	}
	quote, err := pricing.NewQuote(cart.Subtotal(), decimal.Zero, policy)
	if err != nil {
		return domain.Order{}, err
	}

	payment, err := buildPayment(req.Payment, settings, quote.Total)
	if err != nil {
		return domain.Order{}, err
	}

	// 4. Pedido
	order, err := s.orders.CreateOrder(ctx, domain.NewOrder{
		UserID:          userID,
		Items:           cart.Snapshot(),
		Subtotal:        quote.Subtotal,
		Shipping:        quote.Shipping,
		Discount:        quote.Discount,
		ShippingMethod:  methodName,
		DeliveryAddress: address,
		Payment:         payment,
	})
	if err != nil {
		return domain.Order{}, err
	}

	// O pedido permanece mesmo se o carrinho não puder ser esvaziado.
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		s.logger.Error(fmt.Sprintf("Pedido %s criado, mas o carrinho não foi esvaziado.", order.ID), err)
	}
	return order, nil
}

func buildPayment(req domain.PaymentRequest, settings domain.StoreSettings, total decimal.Decimal) (domain.PaymentInfo, error) {
	if !req.Method.IsValid() {
		return domain.PaymentInfo{}, apperror.NewValidationError(fmt.Sprintf("Forma de pagamento '%s' desconhecida.", req.Method))
	}
	if !settings.Payments.Enabled(req.Method) {
		return domain.PaymentInfo{}, apperror.NewValidationError(fmt.Sprintf("A forma de pagamento '%s' está desabilitada.", req.Method))
	}

	info := domain.PaymentInfo{Method: req.Method}
	switch req.Method {
	case domain.PaymentCreditCard:
		digits, ok := cardDigits(req.CardNumber)
		if !ok || len(digits) < 13 || len(digits) > 19 {
			return domain.PaymentInfo{}, apperror.NewValidationError("Número de cartão inválido.")
		}
		n := req.Installments
		if n == 0 {
			n = 1
		}
		if _, err := pricing.SplitInstallments(total, n, settings.MaxInstallments); err != nil {
			return domain.PaymentInfo{}, err
		}
		info.CardLastDigits = digits[len(digits)-4:]
		info.Installments = n
	case domain.PaymentPix:
		info.PixCode = pixCode()
	case domain.PaymentBoleto:
		info.BoletoCode = numericCode(47)
	}
	return info, nil
}

// cardDigits extrai os dígitos ASCII do número do cartão; espaços e hífens são separadores.
// Qualquer outro caractere invalida o número.
func cardDigits(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", false
		}
	}
	return b.String(), true
}

// pixCode gera um código copia-e-cola com um txid aleatório.
func pixCode() string {
	txid := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "00020126360014BR.GOV.BCB.PIX0114GOFARMA" + strings.ToUpper(txid) + "5303986"
}

// numericCode gera a linha digitável de n dígitos a partir de bytes aleatórios.
func numericCode(n int) string {
	var b strings.Builder
	for b.Len() < n {
		id := uuid.New()
		for _, c := range id {
			if b.Len() == n {
				break
			}
			b.WriteByte('0' + c%10)
		}
	}
	return b.String()
}
