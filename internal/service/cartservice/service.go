package cartservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/service/pricing"
)

// CartRepository define o contrato de armazenamento do carrinho.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Update(ctx context.Context, userID string, fn func(*domain.Cart) error) (domain.Cart, error)
	Delete(ctx context.Context, userID string) error
}

// ProductLookup busca o produto no catálogo.
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// ShippingPolicySource fornece a política de frete vigente.
type ShippingPolicySource interface {
	Policy(ctx context.Context) (pricing.ShippingPolicy, error)
}

const (
	noticeAdded        = "Produto adicionado ao carrinho."
	noticePrescription = "Produto adicionado ao carrinho. Este item exige receita médica na entrega."
)

var errQuantityLimit = apperror.NewValidationError(fmt.Sprintf("A quantidade por produto deve estar entre 1 e %d.", domain.MaxItemQuantity))

// Service implementa o carrinho do usuário autenticado.
type Service struct {
	carts    CartRepository
	products ProductLookup
	shipping ShippingPolicySource
	logger   logger.Logger
}

// NewService cria o serviço de carrinho.
func NewService(carts CartRepository, products ProductLookup, shipping ShippingPolicySource, log logger.Logger) *Service {
	return &Service{carts: carts, products: products, shipping: shipping, logger: log}
}

// view recalcula os valores derivados a cada leitura.
func (s *Service) view(ctx context.Context, cart domain.Cart, notice string) (domain.CartView, error) {
	subtotal := cart.Subtotal()
	shipping := decimal.Zero
	if len(cart.Items) > 0 {
		policy, err := s.shipping.Policy(ctx)
		if err != nil {
			return domain.CartView{}, err
		}
		shipping = policy.Compute(subtotal)
	}

	items := cart.Snapshot()
	return domain.CartView{
		Items:                items,
		TotalItems:           cart.TotalItems(),
		Subtotal:             subtotal,
		Shipping:             shipping,
		Total:                subtotal.Add(shipping),
		HasPrescriptionItems: cart.HasPrescriptionItems(),
		Notice:               notice,
	}, nil
}

// Cart retorna o carrinho cru (usado pelo checkout).
func (s *Service) Cart(ctx context.Context, userID string) (domain.Cart, error) {
	if userID == "" {
		return domain.Cart{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	return s.carts.Get(ctx, userID)
}

// GetCart retorna o carrinho com subtotal, total de itens e frete.
func (s *Service) GetCart(ctx context.Context, userID string) (domain.CartView, error) {
	cart, err := s.Cart(ctx, userID)
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(ctx, cart, "")
}

// AddItem adiciona o produto; se já estiver no carrinho, soma a quantidade.
func (s *Service) AddItem(ctx context.Context, userID string, req domain.AddToCartRequest) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	if req.ProductID == "" {
		return domain.CartView{}, apperror.NewValidationError("O produto é obrigatório.")
	}
	if req.Quantity > domain.MaxItemQuantity {
		return domain.CartView{}, errQuantityLimit
	}

	// 1. Snapshot do produto a partir do catálogo
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		var nf *apperror.NotFoundError
		if errors.As(err, &nf) {
			return domain.CartView{}, apperror.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", req.ProductID))
		}
		return domain.CartView{}, err
	}
	if !product.InStock {
		return domain.CartView{}, apperror.NewValidationError(fmt.Sprintf("O produto '%s' está indisponível.", product.Name))
	}

	// 2. Mutação atômica
	cart, err := s.carts.Update(ctx, userID, func(c *domain.Cart) error {
		qty := req.Quantity
		if qty < 1 {
			qty = 1
		}
		if c.QuantityOf(product.ID) > domain.MaxItemQuantity-qty {
			return errQuantityLimit
		}
		c.Add(product.CartItem(qty))
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}

	notice := noticeAdded
	if product.RequiresPrescription {
		notice = noticePrescription
	}
	s.logger.Debug("Item adicionado ao carrinho.", map[string]interface{}{"user_id": userID, "product_id": product.ID})
	return s.view(ctx, cart, notice)
}

// UpdateItemQuantity define a quantidade exata; menor que 1 remove o item.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	if quantity > domain.MaxItemQuantity {
		return domain.CartView{}, errQuantityLimit
	}
	cart, err := s.carts.Update(ctx, userID, func(c *domain.Cart) error {
		c.UpdateQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(ctx, cart, "")
}

// RemoveItem retira o item; ausente é no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (domain.CartView, error) {
	if userID == "" {
		return domain.CartView{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	cart, err := s.carts.Update(ctx, userID, func(c *domain.Cart) error {
		c.Remove(productID)
		return nil
	})
	if err != nil {
		return domain.CartView{}, err
	}
	return s.view(ctx, cart, "")
}

// ClearCart esvazia o carrinho.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	return s.carts.Delete(ctx, userID)
}
