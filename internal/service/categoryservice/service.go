package categoryservice

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

// CategoryRepository define o contrato de persistência da árvore de categorias.
type CategoryRepository interface {
	Save(ctx context.Context, c domain.Category) (domain.Category, error)
	FindByID(ctx context.Context, id string) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, c domain.Category) (domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// Service mantém as categorias do catálogo.
type Service struct {
	repo   CategoryRepository
	logger logger.Logger
}

// NewService cria o serviço de categorias.
func NewService(repo CategoryRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// prepare normaliza nome e slugs da categoria e das subcategorias.
// Slug gerado a partir do nome recebe sufixo numérico se já estiver em uso.
func (s *Service) prepare(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Category{}, apperror.NewValidationError("O nome da categoria é obrigatório.")
	}

	if c.Slug != "" {
		c.Slug = domain.Slugify(c.Slug)
	} else {
		existing, err := s.repo.List(ctx)
		if err != nil {
			return domain.Category{}, err
		}
		c.Slug = uniqueSlug(domain.Slugify(c.Name), existing, c.ID)
	}
	if c.Slug == "" {
		return domain.Category{}, apperror.NewValidationError("Não foi possível gerar um slug para a categoria.")
	}

	seen := map[string]bool{}
	subs := make([]domain.Subcategory, 0, len(c.Subcategories))
	for _, sub := range c.Subcategories {
		sub.Name = strings.TrimSpace(sub.Name)
		if sub.Name == "" {
			return domain.Category{}, apperror.NewValidationError("Toda subcategoria precisa de um nome.")
		}
		if sub.Slug == "" {
			sub.Slug = sub.Name
		}
		sub.Slug = domain.Slugify(sub.Slug)
		if seen[sub.Slug] {
			return domain.Category{}, apperror.NewValidationError(fmt.Sprintf("Subcategoria '%s' repetida.", sub.Slug))
		}
		seen[sub.Slug] = true
		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		sub.ParentID = c.ID
		subs = append(subs, sub)
	}
	c.Subcategories = subs
	return c, nil
}

func uniqueSlug(base string, existing []domain.Category, selfID string) string {
	taken := map[string]bool{}
	for _, c := range existing {
		if c.ID != selfID {
			taken[c.Slug] = true
		}
	}
	slug := base
	for n := 2; taken[slug]; n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug
}

// CreateCategory cria a categoria com suas subcategorias.
func (s *Service) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.ID = uuid.New().String()
	c, err := s.prepare(ctx, c)
	if err != nil {
		return domain.Category{}, err
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	created, err := s.repo.Save(ctx, c)
	if err != nil {
		return domain.Category{}, err
	}
	s.logger.Info("Categoria criada.", map[string]interface{}{"category_id": created.ID, "slug": created.Slug})
	return created, nil
}

// GetCategory busca uma categoria.
func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

// ListCategories retorna a árvore completa, ordenada por nome.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// UpdateCategory substitui os dados e a lista de subcategorias.
func (s *Service) UpdateCategory(ctx context.Context, id string, c domain.Category) (domain.Category, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}

	c.ID = existing.ID
	c, err = s.prepare(ctx, c)
	if err != nil {
		return domain.Category{}, err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, c)
}

// DeleteCategory remove a categoria e suas subcategorias.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Categoria removida.", map[string]interface{}{"category_id": id})
	return nil
}
