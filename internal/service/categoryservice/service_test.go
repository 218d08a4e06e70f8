package categoryservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/repository/memrepo"
	"gofarma/internal/service/categoryservice"
)

func newService() *categoryservice.Service {
	return categoryservice.NewService(memrepo.NewStore().Categories, logger.NewNop())
}

func TestCreateCategory_GeneratesSlugs(t *testing.T) {
	svc := newService()

	c, err := svc.CreateCategory(context.Background(), domain.Category{
		Name: "Higiene & Beleza",
		Subcategories: []domain.Subcategory{
			{Name: "Cuidados com a Pele"},
			{Name: "Cabelos", Slug: "Cabelo Liso"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "higiene-beleza", c.Slug)
	require.Len(t, c.Subcategories, 2)
	assert.Equal(t, "cuidados-com-a-pele", c.Subcategories[0].Slug)
	assert.Equal(t, "cabelo-liso", c.Subcategories[1].Slug)
	for _, sub := range c.Subcategories {
		assert.Equal(t, c.ID, sub.ParentID)
		assert.NotEmpty(t, sub.ID)
	}
}

func TestCreateCategory_GeneratedSlugIsUnique(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.CreateCategory(ctx, domain.Category{Name: "Medicamentos"})
	require.NoError(t, err)
	second, err := svc.CreateCategory(ctx, domain.Category{Name: "Medicamentos"})
	require.NoError(t, err)
	third, err := svc.CreateCategory(ctx, domain.Category{Name: "Medicamentos"})
	require.NoError(t, err)

	assert.Equal(t, "medicamentos", first.Slug)
	assert.Equal(t, "medicamentos-2", second.Slug)
	assert.Equal(t, "medicamentos-3", third.Slug)
}

func TestCreateCategory_ExplicitSlugConflicts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, domain.Category{Name: "Bebês", Slug: "infantil"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, domain.Category{Name: "Crianças", Slug: "infantil"})
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestCreateCategory_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, domain.Category{Name: "  "})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.CreateCategory(ctx, domain.Category{
		Name:          "Vitaminas",
		Subcategories: []domain.Subcategory{{Name: "Vitamina C"}, {Name: "vitamina-c"}},
	})
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestUpdateCategory_KeepsOwnSlug(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, domain.Category{Name: "Dermocosméticos"})
	require.NoError(t, err)

	updated, err := svc.UpdateCategory(ctx, c.ID, domain.Category{
		Name:          "Dermocosméticos",
		Subcategories: []domain.Subcategory{{Name: "Protetor Solar"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "dermocosmeticos", updated.Slug)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)
	require.Len(t, updated.Subcategories, 1)

	_, err = svc.UpdateCategory(ctx, "nao-existe", domain.Category{Name: "X"})
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestDeleteAndList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a, err := svc.CreateCategory(ctx, domain.Category{Name: "Bem-estar"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, domain.Category{Name: "Alimentos"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, a.ID))

	all, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alimentos", all[0].Name)

	assert.IsType(t, &apperror.NotFoundError{}, svc.DeleteCategory(ctx, a.ID))
}
