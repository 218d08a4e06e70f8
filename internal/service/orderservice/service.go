package orderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
)

// OrderRepository define o contrato de persistência de pedidos.
type OrderRepository interface {
	Save(ctx context.Context, o domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, o domain.Order) (domain.Order, error)
}

// maxStatusRetries limita as releituras após conflito de versão.
const maxStatusRetries = 3

// Service implementa o ciclo de vida dos pedidos.
type Service struct {
	repo    OrderRepository
	logger  logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService cria o serviço de pedidos. m pode ser nil.
func NewService(repo OrderRepository, log logger.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: repo, logger: log, metrics: m, now: time.Now}
}

// CreateOrder materializa um pedido em pending. O total é calculado aqui e nunca mais.
func (s *Service) CreateOrder(ctx context.Context, in domain.NewOrder) (domain.Order, error) {
	if in.UserID == "" {
		return domain.Order{}, apperror.NewUnauthorizedError("Autenticação necessária para criar pedidos.")
	}
	if len(in.Items) == 0 {
		return domain.Order{}, apperror.NewValidationError("O pedido deve conter pelo menos um item.")
	}
	if in.Subtotal.IsNegative() || in.Shipping.IsNegative() || in.Discount.IsNegative() {
		return domain.Order{}, apperror.NewValidationError("Valores do pedido não podem ser negativos.")
	}

	order := in.Build(uuid.NewString(), s.now().UTC())

	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}

	total, _ := saved.Total.Float64()
	s.metrics.OrderCreated(total)
	s.logger.Info("Pedido criado.", map[string]interface{}{
		"order_id": saved.ID,
		"user_id":  saved.UserID,
		"total":    saved.Total.StringFixed(2),
	})
	return saved, nil
}

// GetOrderByID busca sem escopo de usuário. Um ID fora do formato uuid não existe.
func (s *Service) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", id))
	}
	return s.repo.FindByID(ctx, id)
}

// GetOrderForUser aplica a regra dono-ou-admin sobre GetOrderByID.
func (s *Service) GetOrderForUser(ctx context.Context, id, userID string, isAdmin bool) (domain.Order, error) {
	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !isAdmin && order.UserID != userID {
		return domain.Order{}, apperror.NewForbiddenError("Este pedido pertence a outro usuário.")
	}
	return order, nil
}

// ListOrdersByUser retorna os pedidos do usuário, mais recentes primeiro.
func (s *Service) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	return s.repo.ListByUser(ctx, userID)
}

// ListOrdersByStatus filtra por status (admin).
func (s *Service) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if !status.IsValid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Status '%s' desconhecido.", status))
	}
	return s.repo.List(ctx, status)
}

// ListOrders retorna todos os pedidos (admin).
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx, "")
}

// CancelOrder cancela o pedido do próprio cliente enquanto o pedido ainda não saiu para entrega.
func (s *Service) CancelOrder(ctx context.Context, id, userID string) (domain.Order, error) {
	if userID == "" {
		return domain.Order{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}

	updated, err := s.transition(ctx, id, func(o domain.Order) error {
		if o.UserID != userID {
			return apperror.NewForbiddenError("Você só pode cancelar seus próprios pedidos.")
		}
		if !o.Status.Cancellable() {
			return apperror.NewInvalidTransitionError(string(o.Status), string(domain.StatusCancelled))
		}
		return nil
	}, domain.StatusCancelled)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("Pedido cancelado pelo cliente.", map[string]interface{}{"order_id": id, "user_id": userID})
	return updated, nil
}

// UpdateOrderStatus é a permissão de override do admin: qualquer status conhecido é aceito.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.IsValid() {
		return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Status '%s' desconhecido.", status))
	}

	updated, err := s.transition(ctx, id, nil, status)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("Status do pedido alterado pelo admin.", map[string]interface{}{
		"order_id": id,
		"status":   string(status),
	})
	return updated, nil
}

// transition relê o pedido e tenta de novo quando outra escrita venceu a corrida de versão.
func (s *Service) transition(ctx context.Context, id string, guard func(domain.Order) error, status domain.OrderStatus) (domain.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := s.GetOrderByID(ctx, id)
		if err != nil {
			return domain.Order{}, err
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return domain.Order{}, err
			}
		}

		order.Transition(status, s.now().UTC())
		updated, err := s.repo.UpdateStatus(ctx, order)
		if err == nil {
			s.metrics.OrderStatusChanged(string(status))
			return updated, nil
		}

		var conflict *apperror.ConflictError
		if !errors.As(err, &conflict) || attempt >= maxStatusRetries {
			return domain.Order{}, err
		}
		s.logger.Warn("Conflito de versão ao atualizar pedido; tentando novamente.", map[string]interface{}{
			"order_id": id,
			"attempt":  attempt,
		})
	}
}
