package productservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Service implementa o catálogo de produtos.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func validate(p domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if !p.Price.IsPositive() {
		return apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if p.OldPrice != nil && !p.OldPrice.IsPositive() {
		return apperror.NewValidationError("O preço anterior deve ser positivo.")
	}
	return nil
}

// --- Implementação: CreateProduct ---
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	// 1. Validação de Regras de Negócio
	if err := validate(product); err != nil {
		return domain.Product{}, err
	}

	// 2. Preenchimento de ID e timestamps
	product.ID = uuid.New().String()
	product.Name = strings.TrimSpace(product.Name)
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	// 3. Delegação para a Camada de Persistência (Repository)
	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado.", map[string]interface{}{"product_id": created.ID, "name": created.Name})
	return created, nil
}

// --- Implementação: GetProductByID ---
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	// 1. Validação de Formato
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}

	// 2. Delegação para o Repositório (cache-aside fica no repositório)
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", id))
		}
		return domain.Product{}, err
	}
	return product, nil
}

// GetProducts busca produtos com paginação e filtros opcionais
// (category, subcategory, search, in_stock).
func (s *Service) GetProducts(ctx context.Context, page, limit int, filters map[string]string) (domain.ProductPage, error) {
	filter := domain.ProductFilter{Page: page, Limit: limit}
	if limit > 100 {
		filter.Limit = 100
	}
	if v, ok := filters["category"]; ok {
		filter.Category = v
	}
	if v, ok := filters["subcategory"]; ok {
		filter.Subcategory = v
	}
	if v, ok := filters["search"]; ok {
		filter.Search = strings.TrimSpace(v)
	}
	if v, ok := filters["in_stock"]; ok && v == "true" {
		filter.InStockOnly = true
	}
	filter = filter.Normalize()

	products, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return domain.ProductPage{}, apperror.NewInternalError(fmt.Sprintf("Falha interna ao buscar produtos. %v", err), err)
	}
	return domain.ProductPage{Items: products, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// UpdateProduct substitui os dados do produto, preservando ID e data de criação.
func (s *Service) UpdateProduct(ctx context.Context, id string, product domain.Product) (domain.Product, error) {
	if err := validate(product); err != nil {
		return domain.Product{}, err
	}
	existing, err := s.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	product.ID = existing.ID
	product.Name = strings.TrimSpace(product.Name)
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.Info("Produto atualizado.", map[string]interface{}{"product_id": id})
	return updated, nil
}

// DeleteProduct remove o produto do catálogo. Pedidos antigos mantêm seus snapshots.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do produto deve ser um UUID válido.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Produto removido.", map[string]interface{}{"product_id": id})
	return nil
}
