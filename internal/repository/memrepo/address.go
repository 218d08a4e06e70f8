package memrepo

import (
	"context"
	"fmt"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
)

// AddressRepository é a versão em memória de userrepo.AddressRepository.
type AddressRepository struct {
	t *userTable
}

func notFoundAddress(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Endereço %s não encontrado.", id))
}

func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	addrs := r.t.addresses[userID]
	out := make([]domain.Address, len(addrs))
	copy(out, addrs)
	return out, nil
}

func (r *AddressRepository) FindByID(ctx context.Context, userID, id string) (domain.Address, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	for _, a := range r.t.addresses[userID] {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Address{}, notFoundAddress(id)
}

func (r *AddressRepository) Insert(ctx context.Context, a domain.Address) (domain.Address, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	if _, ok := r.t.users[a.UserID]; !ok {
		return domain.Address{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}

	addrs := r.t.addresses[a.UserID]
	a.IsDefault = domain.BecomesDefault(len(addrs), a.IsDefault)
	if a.IsDefault {
		addrs = domain.MarkDefault(addrs, "")
	}
	r.t.addresses[a.UserID] = append(addrs, a)
	return a, nil
}

func (r *AddressRepository) Update(ctx context.Context, a domain.Address) (domain.Address, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	addrs := r.t.addresses[a.UserID]
	idx := -1
	for i := range addrs {
		if addrs[i].ID == a.ID {
			idx = i
		}
	}
	if idx < 0 {
		return domain.Address{}, notFoundAddress(a.ID)
	}

	next := make([]domain.Address, len(addrs))
	copy(next, addrs)
	if a.IsDefault {
		next = domain.MarkDefault(next, a.ID)
	}
	a.CreatedAt = addrs[idx].CreatedAt
	next[idx] = a
	r.t.addresses[a.UserID] = next
	return a, nil
}

func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	addrs := r.t.addresses[userID]
	next := make([]domain.Address, 0, len(addrs))
	for _, a := range addrs {
		if a.ID != id {
			next = append(next, a)
		}
	}
	if len(next) == len(addrs) {
		return notFoundAddress(id)
	}
	r.t.addresses[userID] = next
	return nil
}

func (r *AddressRepository) SetDefault(ctx context.Context, userID, id string) ([]domain.Address, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	addrs := r.t.addresses[userID]
	found := false
	for _, a := range addrs {
		if a.ID == id {
			found = true
		}
	}
	if !found {
		return nil, notFoundAddress(id)
	}

	next := domain.MarkDefault(addrs, id)
	r.t.addresses[userID] = next

	out := make([]domain.Address, len(next))
	copy(out, next)
	return out, nil
}
