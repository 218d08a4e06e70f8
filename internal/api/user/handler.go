package user

import (
	"context"
	"net/http"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/middleware"
	"gofarma/internal/pkg/response"
)

// UserService define o contrato para registro, sessão, perfil e administração de usuários.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.AuthResult, error)
	Login(ctx context.Context, email string, password string) (domain.AuthResult, error)
	Logout(ctx context.Context, tokenString string) error
	CurrentUser(ctx context.Context, userID string) (domain.User, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfileUpdate) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ToggleAdmin(ctx context.Context, userID string, makeAdmin bool) (domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToggleAdminRequest é o payload de PUT /v1/admin/users/{id}/admin.
type ToggleAdminRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo cliente, hasheia a senha e já abre a sessão.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Nome, email e senha"
// @Success 201 {object} domain.AuthResult "Usuário criado e autenticado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := response.DecodeJSON(r, &reg); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	result, err := h.Service.Register(r.Context(), reg)
	response.Handle(w, r, h.Logger, result, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token.
// @Tags users
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} domain.AuthResult "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq LoginRequest
	if err := response.DecodeJSON(r, &loginReq); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	result, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}

// LogoutHandler lida com POST /v1/logout.
// @Summary Encerra a sessão atual
// @Tags users
// @Security BearerAuth
// @Success 204 "Sessão encerrada"
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Router /logout [post]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := middleware.BearerToken(r)
	if !ok {
		response.Error(w, r, h.Logger, apperror.NewUnauthorizedError("Token ausente."))
		return
	}
	err := h.Service.Logout(r.Context(), tokenString)
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}

// MeHandler lida com GET /v1/me.
// @Summary Retorna o usuário autenticado
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} domain.ErrorResponse "Não autenticado"
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	u, err := h.Service.CurrentUser(r.Context(), claims.UserID)
	response.Handle(w, r, h.Logger, u, err, http.StatusOK)
}

// UpdateMeHandler lida com PUT /v1/me.
// @Summary Atualiza o perfil do usuário autenticado
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body domain.ProfileUpdate true "Campos a alterar"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email em uso ou versão desatualizada"
// @Router /me [put]
func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Claims(r)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	var patch domain.ProfileUpdate
	if err := response.DecodeJSON(r, &patch); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), claims.UserID, patch)
	response.Handle(w, r, h.Logger, u, err, http.StatusOK)
}

// ListUsersHandler lida com GET /v1/admin/users.
// @Summary Lista os usuários (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.User
// @Failure 403 {object} domain.ErrorResponse "Apenas administradores"
// @Router /admin/users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	response.Handle(w, r, h.Logger, users, err, http.StatusOK)
}

// ToggleAdminHandler lida com PUT /v1/admin/users/{id}/admin.
// @Summary Concede ou revoga o papel de administrador
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do usuário"
// @Param body body ToggleAdminRequest true "Novo valor da flag"
// @Success 200 {object} domain.User
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Failure 422 {object} domain.ErrorResponse "Removeria o último administrador"
// @Router /admin/users/{id}/admin [put]
func (h *Handler) ToggleAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req ToggleAdminRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	u, err := h.Service.ToggleAdmin(r.Context(), r.PathValue("id"), req.IsAdmin)
	response.Handle(w, r, h.Logger, u, err, http.StatusOK)
}

// DeleteUserHandler lida com DELETE /v1/admin/users/{id}.
// @Summary Remove um usuário (admin)
// @Tags admin
// @Security BearerAuth
// @Param id path string true "ID do usuário"
// @Success 204 "Usuário removido"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Failure 422 {object} domain.ErrorResponse "Removeria o último administrador"
// @Router /admin/users/{id} [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteUser(r.Context(), r.PathValue("id"))
	response.Handle(w, r, h.Logger, nil, err, http.StatusNoContent)
}
