package addressservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
)

// AddressRepository define o contrato do livro de endereços.
// Insert/Update/SetDefault mantêm no máximo um endereço padrão por usuário.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Address, error)
	FindByID(ctx context.Context, userID, id string) (domain.Address, error)
	Insert(ctx context.Context, a domain.Address) (domain.Address, error)
	Update(ctx context.Context, a domain.Address) (domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) ([]domain.Address, error)
}

// Service implementa o livro de endereços do usuário autenticado.
type Service struct {
	repo   AddressRepository
	logger logger.Logger
}

// NewService cria o serviço de endereços.
func NewService(repo AddressRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

func validate(a domain.Address) error {
	if missing := a.MissingFields(); len(missing) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("Campos obrigatórios ausentes: %s.", strings.Join(missing, ", ")))
	}
	if len(a.State) != 2 {
		return apperror.NewValidationError("O estado deve ser a sigla de 2 letras (UF).")
	}
	return nil
}

// ListAddresses lista os endereços do usuário.
func (s *Service) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.repo.ListByUser(ctx, userID)
}

// AddAddress cria um endereço. O primeiro endereço, ou um marcado como padrão, vira o único padrão.
func (s *Service) AddAddress(ctx context.Context, userID string, in domain.AddressInput) (domain.Address, error) {
	a := in.ToAddress(userID)
	if err := validate(a); err != nil {
		return domain.Address{}, err
	}

	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()

	created, err := s.repo.Insert(ctx, a)
	if err != nil {
		return domain.Address{}, err
	}

	s.logger.Debug("Endereço adicionado.", map[string]interface{}{"user_id": userID, "address_id": created.ID, "is_default": created.IsDefault})
	return created, nil
}

// UpdateAddress mescla o patch no endereço. isDefault=true desmarca os demais na mesma atualização.
func (s *Service) UpdateAddress(ctx context.Context, userID, id string, patch domain.AddressPatch) (domain.Address, error) {
	current, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return domain.Address{}, err
	}

	updated := patch.Apply(current)
	if err := validate(updated); err != nil {
		return domain.Address{}, err
	}

	return s.repo.Update(ctx, updated)
}

// RemoveAddress exclui o endereço; nenhum outro é promovido a padrão.
func (s *Service) RemoveAddress(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// SetDefaultAddress marca exatamente um endereço como padrão.
func (s *Service) SetDefaultAddress(ctx context.Context, userID, id string) ([]domain.Address, error) {
	return s.repo.SetDefault(ctx, userID, id)
}

// GetDefaultAddress retorna o padrão, senão o primeiro; NotFound se não houver endereços.
func (s *Service) GetDefaultAddress(ctx context.Context, userID string) (domain.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	a, ok := domain.DefaultAddress(addresses)
	if !ok {
		return domain.Address{}, apperror.NewNotFoundError("Nenhum endereço cadastrado.")
	}
	return a, nil
}

// ResolveDeliveryAddress escolhe o endereço de entrega: o informado ou o padrão.
func (s *Service) ResolveDeliveryAddress(ctx context.Context, userID, addressID string) (domain.Address, error) {
	if addressID != "" {
		return s.repo.FindByID(ctx, userID, addressID)
	}
	a, err := s.GetDefaultAddress(ctx, userID)
	if err != nil {
		return domain.Address{}, apperror.NewValidationError("Cadastre um endereço de entrega antes de finalizar a compra.")
	}
	return a, nil
}
