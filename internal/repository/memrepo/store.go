// Package memrepo implementa em memória os mesmos contratos dos repositórios PostgreSQL.
// Usado com STORAGE_DRIVER=memory e como fake nos testes de serviço.
package memrepo

import (
	"sort"
	"sync"

	"gofarma/internal/domain"
)

// Store agrupa os repositórios em memória que compartilham estado.
type Store struct {
	Users      *UserRepository
	Addresses  *AddressRepository
	Orders     *OrderRepository
	Products   *ProductRepository
	Categories *CategoryRepository
	Settings   *SettingsRepository
}

// NewStore cria um armazenamento vazio.
func NewStore() *Store {
	users := &userTable{
		users:     map[string]domain.User{},
		addresses: map[string][]domain.Address{},
	}
	return &Store{
		Users:      &UserRepository{t: users},
		Addresses:  &AddressRepository{t: users},
		Orders:     &OrderRepository{orders: map[string]domain.Order{}},
		Products:   &ProductRepository{products: map[string]domain.Product{}},
		Categories: &CategoryRepository{categories: map[string]domain.Category{}},
		Settings:   &SettingsRepository{},
	}
}

// userTable guarda usuários e endereços sob o mesmo lock, como a transação do PostgreSQL.
type userTable struct {
	mu        sync.Mutex
	users     map[string]domain.User
	addresses map[string][]domain.Address // por user_id, em ordem de criação
}

func (t *userTable) withAddresses(u domain.User) domain.User {
	addrs := t.addresses[u.ID]
	u.Addresses = make([]domain.Address, len(addrs))
	copy(u.Addresses, addrs)
	return u
}

func (t *userTable) adminIDs() []string {
	var ids []string
	for id, u := range t.users {
		if u.IsAdmin {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
