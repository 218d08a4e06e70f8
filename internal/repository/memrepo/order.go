package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
)

// OrderRepository é a versão em memória de orderrepo.OrderRepository.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

// clone isola o chamador dos slices guardados (snapshots imutáveis).
func clone(o domain.Order) domain.Order {
	o.Items = append([]domain.CartItem(nil), o.Items...)
	o.StatusHistory = append([]domain.StatusEntry(nil), o.StatusHistory...)
	return o
}

func (r *OrderRepository) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return domain.Order{}, apperror.NewConflictError(fmt.Sprintf("Pedido %s já existe.", o.ID))
	}
	r.orders[o.ID] = clone(o)
	return clone(o), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", id))
	}
	return clone(o), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return status == "" || o.Status == status }), nil
}

func (r *OrderRepository) filter(keep func(domain.Order) bool) []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []domain.Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, o domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[o.ID]
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", o.ID))
	}
	if current.Version != o.Version {
		return domain.Order{}, apperror.NewConflictError("O pedido foi modificado por outra operação. Tente novamente.")
	}

	// Só status, histórico e updatedAt mudam; o total gravado permanece.
	current.Status = o.Status
	current.StatusHistory = append([]domain.StatusEntry(nil), o.StatusHistory...)
	current.UpdatedAt = o.UpdatedAt
	current.Version++
	r.orders[o.ID] = current
	return clone(current), nil
}
