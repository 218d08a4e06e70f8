package userservice

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/token"
)

// UserRepository define o contrato de persistência de usuários.
// SetAdmin e Delete aplicam a guarda do último admin de forma atômica.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) (domain.User, error)
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int, error)
}

// SessionStore guarda as sessões encerradas (logout).
type SessionStore interface {
	Revoke(ctx context.Context, claims *token.CustomClaims) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const minPasswordLength = 6

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo UserRepository
	TokenSvc token.TokenService
	Sessions SessionStore
	logger   logger.Logger
	cost     int

	// dummyHash iguala o tempo de resposta do login para emails inexistentes.
	dummyHash []byte
}

// NewService cria uma nova instância do UserService, injetando o Repositório.
func NewService(repo UserRepository, tokenSvc token.TokenService, sessions SessionStore, log logger.Logger) *UserService {
	s := &UserService{
		UserRepo: repo,
		TokenSvc: tokenSvc,
		Sessions: sessions,
		logger:   log,
		cost:     bcrypt.DefaultCost,
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gofarma-dummy-password"), s.cost)
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *UserService) issue(user domain.User) (domain.AuthResult, error) {
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role()))
	if err != nil {
		return domain.AuthResult{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return domain.AuthResult{Token: tokenString, User: user}, nil
}

// Register registra um novo usuário (nunca admin) e já abre a sessão.
func (s *UserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.AuthResult, error) {
	// 1. Validação Básica
	name := strings.TrimSpace(registration.Name)
	email := normalizeEmail(registration.Email)
	if name == "" || email == "" || registration.Password == "" {
		return domain.AuthResult{}, apperror.NewValidationError("Nome, email e senha são obrigatórios.")
	}
	if !validEmail(email) {
		return domain.AuthResult{}, apperror.NewValidationError("Email inválido.")
	}
	if len(registration.Password) < minPasswordLength {
		return domain.AuthResult{}, apperror.NewValidationError(fmt.Sprintf("A senha deve ter pelo menos %d caracteres.", minPasswordLength))
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), s.cost)
	if err != nil {
		return domain.AuthResult{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Criação do Objeto User
	now := time.Now().UTC()
	newUser := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Addresses:    []domain.Address{},
		IsAdmin:      false,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 4. Persistência (email duplicado volta como ConflictError)
	user, err := s.UserRepo.Save(ctx, newUser)
	if err != nil {
		return domain.AuthResult{}, err
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID})
	return s.issue(user)
}

// Login autentica um usuário, verifica a senha e gera um JWT.
func (s *UserService) Login(ctx context.Context, email string, password string) (domain.AuthResult, error) {
	// 1. Validação Básica
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.AuthResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 2. Buscar Usuário pelo Email
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			// Mesmo custo de uma senha errada: não revela se o email existe.
			bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return domain.AuthResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return domain.AuthResult{}, err
	}

	// 3. Comparar Senhas (Hashing)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.AuthResult{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 4. Gerar JWT
	return s.issue(user)
}

// Logout encerra a sessão do token; os dados do usuário não são tocados.
func (s *UserService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.TokenSvc.ValidateToken(tokenString)
	if err != nil {
		// Token já inválido: nada a encerrar.
		return nil
	}
	if err := s.Sessions.Revoke(ctx, claims); err != nil {
		return apperror.NewCacheError("Falha ao encerrar sessão", err)
	}
	s.logger.Info("Sessão encerrada.", map[string]interface{}{"user_id": claims.UserID})
	return nil
}

// ResolveSession confere a sessão do token. Sessão revogada ou usuário inexistente
// resultam em "não autenticado", sem outro erro.
func (s *UserService) ResolveSession(ctx context.Context, claims *token.CustomClaims) (domain.User, error) {
	revoked, err := s.Sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.User{}, apperror.NewCacheError("Falha ao verificar sessão", err)
	}
	if revoked {
		return domain.User{}, apperror.NewUnauthorizedError("Sessão encerrada. Faça login novamente.")
	}
	return s.CurrentUser(ctx, claims.UserID)
}

// CurrentUser carrega o usuário da sessão.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.User{}, apperror.NewUnauthorizedError("Autenticação necessária.")
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile mescla o patch no usuário atual. A senha nunca muda por aqui.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch domain.ProfileUpdate) (domain.User, error) {
	current, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	updated := patch.Apply(current)
	updated.Name = strings.TrimSpace(updated.Name)
	updated.Email = normalizeEmail(updated.Email)
	if updated.Name == "" {
		return domain.User{}, apperror.NewValidationError("O nome é obrigatório.")
	}
	if !validEmail(updated.Email) {
		return domain.User{}, apperror.NewValidationError("Email inválido.")
	}

	// Versão 0 no patch significa "sem verificação"; usa a versão lida agora.
	if patch.Version != 0 {
		updated.Version = patch.Version
	}

	return s.UserRepo.Update(ctx, updated)
}

// GetUser busca um usuário (admin).
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.UserRepo.FindByID(ctx, id)
}

// ListUsers lista todos os usuários (admin).
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.UserRepo.List(ctx)
}

// ToggleAdmin promove ou rebaixa um usuário; rebaixar o último admin falha sem alterar nada.
func (s *UserService) ToggleAdmin(ctx context.Context, userID string, makeAdmin bool) (domain.User, error) {
	user, err := s.UserRepo.SetAdmin(ctx, userID, makeAdmin)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.Info("Permissão de admin alterada.", map[string]interface{}{"user_id": userID, "is_admin": makeAdmin})
	return user, nil
}

// DeleteUser remove um usuário com a mesma guarda do último admin.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	return s.UserRepo.Delete(ctx, userID)
}

// EnsureAdmin garante que exista ao menos um admin. Roda a cada boot: se não houver nenhum,
// promove o usuário do email configurado ou o cria com a senha configurada.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	count, err := s.UserRepo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email = normalizeEmail(email)
	existing, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		if _, err := s.UserRepo.SetAdmin(ctx, existing.ID, true); err != nil {
			return err
		}
		s.logger.Warn("Nenhum admin encontrado; usuário existente promovido.", map[string]interface{}{"user_id": existing.ID})
		return nil
	}
	var notFoundErr *apperror.NotFoundError
	if !errors.As(err, &notFoundErr) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	now := time.Now().UTC()
	admin, err := s.UserRepo.Save(ctx, domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Addresses:    []domain.Address{},
		IsAdmin:      true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Nenhum admin encontrado; admin padrão criado.", map[string]interface{}{"user_id": admin.ID, "email": email})
	return nil
}
