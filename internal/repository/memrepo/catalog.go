package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
)

// ProductRepository é a versão em memória de productrepo.ProductRepository.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func productNotFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
}

func (r *ProductRepository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p
	return p, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, productNotFound(id)
	}
	return p, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter = filter.Normalize()
	search := strings.ToLower(filter.Search)

	matched := []domain.Product{}
	for _, p := range r.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Subcategory != "" && p.Subcategory != filter.Subcategory {
			continue
		}
		if filter.InStockOnly && !p.InStock {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name == matched[j].Name {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Name < matched[j].Name
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *ProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; !ok {
		return domain.Product{}, productNotFound(p.ID)
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return productNotFound(id)
	}
	delete(r.products, id)
	return nil
}

// CategoryRepository é a versão em memória de categoryrepo.CategoryRepository.
type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]domain.Category
}

func categoryNotFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Categoria %s não encontrada.", id))
}

func (r *CategoryRepository) slugTaken(slug, exceptID string) bool {
	for id, c := range r.categories {
		if id != exceptID && c.Slug == slug {
			return true
		}
	}
	return false
}

func (r *CategoryRepository) Save(ctx context.Context, c domain.Category) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(c.Slug, "") {
		return domain.Category{}, apperror.NewConflictError(fmt.Sprintf("Já existe uma categoria com o slug '%s'.", c.Slug))
	}
	r.categories[c.ID] = c
	return c, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return domain.Category{}, categoryNotFound(id)
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[c.ID]; !ok {
		return domain.Category{}, categoryNotFound(c.ID)
	}
	if r.slugTaken(c.Slug, c.ID) {
		return domain.Category{}, apperror.NewConflictError(fmt.Sprintf("Já existe uma categoria com o slug '%s'.", c.Slug))
	}
	r.categories[c.ID] = c
	return c, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return categoryNotFound(id)
	}
	delete(r.categories, id)
	return nil
}

// SettingsRepository é a versão em memória de settingsrepo.SettingsRepository.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings *domain.StoreSettings
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.StoreSettings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.settings == nil {
		return domain.StoreSettings{}, false, nil
	}
	return copySettings(*r.settings), true, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s domain.StoreSettings) (domain.StoreSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copySettings(s)
	r.settings = &stored
	return copySettings(stored), nil
}

func copySettings(s domain.StoreSettings) domain.StoreSettings {
	s.SEO.Keywords = append([]string(nil), s.SEO.Keywords...)
	s.Shipping.Methods = append([]domain.ShippingMethod{}, s.Shipping.Methods...)
	return s
}
