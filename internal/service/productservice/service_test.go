package productservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// TestGetProducts_Success_NoFilters testa a busca de produtos sem filtros.
func TestGetProducts_Success_NoFilters(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	expectedProducts := []domain.Product{
		{ID: uuid.New().String(), Name: "Dipirona"},
		{ID: uuid.New().String(), Name: "Paracetamol"},
	}
	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10}).Return(expectedProducts, 2, nil)

	page, err := svc.GetProducts(context.Background(), 1, 10, nil)

	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, page.Items)
	assert.Equal(t, 2, page.Total)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_Success_WithFilters testa a busca de produtos com filtros.
func TestGetProducts_Success_WithFilters(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	filters := map[string]string{
		"category":    "medicamentos",
		"subcategory": "analgesicos",
		"search":      " dor ",
		"in_stock":    "true",
	}
	expectedFilter := domain.ProductFilter{
		Page:        2,
		Limit:       10,
		Category:    "medicamentos",
		Subcategory: "analgesicos",
		Search:      "dor",
		InStockOnly: true,
	}
	mockRepo.On("FindAll", mock.Anything, expectedFilter).Return([]domain.Product{}, 0, nil)

	page, err := svc.GetProducts(context.Background(), 2, 10, filters)

	assert.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	mockRepo.AssertExpectations(t)
}

// TestGetProducts_Fail_RepoError testa um erro do repositório.
func TestGetProducts_Fail_RepoError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	repoError := errors.New("database connection lost")
	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 10}).Return([]domain.Product{}, 0, repoError)

	_, err := svc.GetProducts(context.Background(), 1, 10, nil)

	assert.IsType(t, &apperror.InternalError{}, err)
	assert.Contains(t, err.Error(), "Falha interna ao buscar produtos.")
	assert.Contains(t, err.Error(), "database connection lost")
}

// TestGetProducts_LimitSafeguard testa o limite máximo de itens por página.
func TestGetProducts_LimitSafeguard(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("FindAll", mock.Anything, domain.ProductFilter{Page: 1, Limit: 100}).Return([]domain.Product{}, 0, nil)

	_, err := svc.GetProducts(context.Background(), 1, 500, nil)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())

	mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID != "" && p.Name == "Dipirona" && !p.CreatedAt.IsZero()
	})).Return(domain.Product{ID: "novo", Name: "Dipirona"}, nil)

	created, err := svc.CreateProduct(context.Background(), domain.Product{
		Name:  "  Dipirona ",
		Price: decimal.RequireFromString("12.99"),
	})

	require.NoError(t, err)
	assert.Equal(t, "novo", created.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateProduct_Validation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())
	negative := decimal.NewFromInt(-1)

	cases := []domain.Product{
		{Name: "", Price: decimal.NewFromInt(10)},
		{Name: "Sem preço"},
		{Name: "Promo", Price: decimal.NewFromInt(10), OldPrice: &negative},
	}
	for _, p := range cases {
		_, err := svc.CreateProduct(context.Background(), p)
		assert.IsType(t, &apperror.ValidationError{}, err)
	}
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())
	ctx := context.Background()

	_, err := svc.GetProductByID(ctx, "abc")
	assert.IsType(t, &apperror.ValidationError{}, err)

	id := uuid.New().String()
	mockRepo.On("FindByID", mock.Anything, id).Return(domain.Product{}, apperror.NewNotFoundError("x"))
	_, err = svc.GetProductByID(ctx, id)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.Contains(t, err.Error(), id)
}

func TestUpdateProduct_KeepsIdentity(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())
	id := uuid.New().String()

	existing := domain.Product{ID: id, Name: "Antigo", Price: decimal.NewFromInt(5)}
	mockRepo.On("FindByID", mock.Anything, id).Return(existing, nil)
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID == id && p.Name == "Novo"
	})).Return(domain.Product{ID: id, Name: "Novo"}, nil)

	updated, err := svc.UpdateProduct(context.Background(), id, domain.Product{ID: "ignorado", Name: "Novo", Price: decimal.NewFromInt(7)})

	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	mockRepo.AssertExpectations(t)
}

func TestDeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := productservice.NewService(mockRepo, logger.NewNop())
	id := uuid.New().String()

	mockRepo.On("Delete", mock.Anything, id).Return(nil)

	assert.NoError(t, svc.DeleteProduct(context.Background(), id))
	assert.IsType(t, &apperror.ValidationError{}, svc.DeleteProduct(context.Background(), "x"))
	mockRepo.AssertExpectations(t)
}
