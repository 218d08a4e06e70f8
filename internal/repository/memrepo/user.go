package memrepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
)

// UserRepository é a versão em memória de userrepo.UserRepository.
type UserRepository struct {
	t *userTable
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	for _, u := range r.t.users {
		if u.Email == user.Email {
			return domain.User{}, apperror.NewConflictError("Este e-mail já está cadastrado.")
		}
	}
	user.Addresses = nil
	r.t.users[user.ID] = user
	return r.t.withAddresses(user), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	u, ok := r.t.users[id]
	if !ok {
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	return r.t.withAddresses(u), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	for _, u := range r.t.users {
		if u.Email == email {
			return r.t.withAddresses(u), nil
		}
	}
	return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	users := make([]domain.User, 0, len(r.t.users))
	for _, u := range r.t.users {
		users = append(users, r.t.withAddresses(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	current, ok := r.t.users[user.ID]
	if !ok {
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	if current.Version != user.Version {
		return domain.User{}, apperror.NewConflictError("O perfil foi modificado por outra sessão. Recarregue e tente novamente.")
	}
	for id, u := range r.t.users {
		if id != user.ID && u.Email == user.Email {
			return domain.User{}, apperror.NewConflictError("Este e-mail já está cadastrado.")
		}
	}

	current.Name = user.Name
	current.Email = user.Email
	current.Phone = user.Phone
	current.BirthDate = user.BirthDate
	current.CPF = user.CPF
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	r.t.users[user.ID] = current
	return r.t.withAddresses(current), nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) (domain.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	u, ok := r.t.users[id]
	if !ok {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário %s não encontrado.", id))
	}
	if !isAdmin && domain.WouldRemoveLastAdmin(r.t.adminIDs(), id) {
		return domain.User{}, apperror.NewLastAdminError()
	}

	u.IsAdmin = isAdmin
	u.Version++
	u.UpdatedAt = time.Now().UTC()
	r.t.users[id] = u
	return r.t.withAddresses(u), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	u, ok := r.t.users[id]
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário %s não encontrado.", id))
	}
	if u.IsAdmin && domain.WouldRemoveLastAdmin(r.t.adminIDs(), id) {
		return apperror.NewLastAdminError()
	}

	delete(r.t.users, id)
	delete(r.t.addresses, id)
	return nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	return len(r.t.adminIDs()), nil
}
