package product

import (
	"context"
	"net/http"
	"strconv"

	"gofarma/internal/domain"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/response"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	GetProducts(ctx context.Context, page, limit int, filters map[string]string) (domain.ProductPage, error)
	UpdateProduct(ctx context.Context, id string, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateProductHandler lida com POST /v1/admin/products.
// @Summary Cria um produto (admin)
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body domain.Product true "Dados do produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "Dados inválidos"
// @Router /admin/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := response.DecodeJSON(r, &p); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	created, err := h.Service.CreateProduct(r.Context(), p)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// GetProductByIDHandler lida com GET /v1/products/{id}.
// @Summary Busca um produto por ID
// @Tags products
// @Produce json
// @Param id path string true "ID do produto (UUID)"
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProductByID(r.Context(), r.PathValue("id"))
	response.Handle(w, r, h.Logger, p, err, http.StatusOK)
}

// GetProductsHandler lida com GET /v1/products.
// @Summary Lista o catálogo com paginação e filtros
// @Tags products
// @Produce json
// @Param page query int false "Página (padrão 1)"
// @Param limit query int false "Itens por página (padrão 20, máximo 100)"
// @Param category query string false "Slug da categoria"
// @Param subcategory query string false "Slug da subcategoria"
// @Param search query string false "Busca por nome, marca ou descrição"
// @Param in_stock query bool false "Apenas disponíveis"
// @Success 200 {object} domain.ProductPage
// @Router /products [get]
func (h *Handler) GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filters := map[string]string{}
	for _, key := range []string{"category", "subcategory", "search", "in_stock"} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}

	result, err := h.Service.GetProducts(r.Context(), page, limit, filters)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}

// UpdateProductHandler lida com PUT /v1/admin/products/{id}.
// @Summary Atualiza um produto (admin)
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Param product body domain.Product true "Dados do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /admin/products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := response.DecodeJSON(r, &p); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	updated, err := h.Service.UpdateProduct(r.Context(), r.PathValue("id"), p)
	response.Handle(w, r, h.Logger, updated, err, http.StatusOK)
}

// DeleteProductHandler lida com DELETE /v1/admin/products/{id}.
// @Summary Remove um produto (admin)
// @Tags products
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 204 "Removido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /admin/products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteProduct(r.Context(), r.PathValue("id"))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
