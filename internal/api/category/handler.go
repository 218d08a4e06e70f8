package category

import (
	"context"
	"net/http"

	"gofarma/internal/domain"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/response"
)

// CategoryService define as operações da árvore de categorias.
type CategoryService interface {
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, id string, c domain.Category) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type Handler struct {
	Service CategoryService
	Logger  logger.Logger
}

func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// ListHandler lida com GET /v1/categories.
// @Summary Lista as categorias com subcategorias
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Service.ListCategories(r.Context())
	response.Handle(w, r, h.Logger, cats, err, http.StatusOK)
}

// GetHandler lida com GET /v1/categories/{id}.
// @Summary Busca uma categoria
// @Tags categories
// @Produce json
// @Param id path string true "ID da categoria"
// @Success 200 {object} domain.Category
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Router /categories/{id} [get]
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCategory(r.Context(), r.PathValue("id"))
	response.Handle(w, r, h.Logger, c, err, http.StatusOK)
}

// CreateHandler lida com POST /v1/admin/categories.
// @Summary Cria uma categoria (admin)
// @Description Slugs ausentes são gerados a partir do nome.
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body domain.Category true "Categoria"
// @Success 201 {object} domain.Category
// @Failure 409 {object} domain.ErrorResponse "Slug em uso"
// @Router /admin/categories [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := response.DecodeJSON(r, &c); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	created, err := h.Service.CreateCategory(r.Context(), c)
	response.Handle(w, r, h.Logger, created, err, http.StatusCreated)
}

// UpdateHandler lida com PUT /v1/admin/categories/{id}.
// @Summary Atualiza uma categoria (admin)
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da categoria"
// @Param category body domain.Category true "Categoria"
// @Success 200 {object} domain.Category
// @Router /admin/categories/{id} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := response.DecodeJSON(r, &c); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	updated, err := h.Service.UpdateCategory(r.Context(), r.PathValue("id"), c)
	response.Handle(w, r, h.Logger, updated, err, http.StatusOK)
}

// DeleteHandler lida com DELETE /v1/admin/categories/{id}.
// @Summary Remove uma categoria (admin)
// @Tags categories
// @Security BearerAuth
// @Param id path string true "ID da categoria"
// @Success 204 "Removida"
// @Router /admin/categories/{id} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteCategory(r.Context(), r.PathValue("id"))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
