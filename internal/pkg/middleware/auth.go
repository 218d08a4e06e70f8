package middleware

import (
	"context"
	"net/http"
	"strings"

	"gofarma/internal/domain" // Para usar a role do usuário
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/response"
	"gofarma/internal/pkg/token"
)

// ContextKey garante que a chave seja única no contexto
// (Context Keys devem ser não-exportadas e de um tipo único).
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa os dados da sessão anexados ao contexto.
// A Role vem do cadastro atual do usuário, não do token.
type UserClaims struct {
	UserID    string
	Role      domain.UserRole
	SessionID string
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// SessionResolver confirma que a sessão do token ainda vale (não revogada e usuário existente).
type SessionResolver interface {
	ResolveSession(ctx context.Context, claims *token.CustomClaims) (domain.User, error)
}

// NewAuthMiddleware cria uma função de middleware que valida um JWT, resolve a sessão
// e anexa as claims (UserID e Role) ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService, sessions SessionResolver, log logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o Token do Header Authorization: Bearer <token>
			tokenString, ok := BearerToken(r)
			if !ok {
				response.Error(w, r, log, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			// 2. Validar o Token
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				response.Error(w, r, log, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			// 3. Resolver a sessão (logout, usuário removido, role atualizada)
			user, err := sessions.ResolveSession(r.Context(), claims)
			if err != nil {
				response.Error(w, r, log, err)
				return
			}

			// 4. Anexar Claims ao Contexto
			userClaims := UserClaims{
				UserID:    user.ID,
				Role:      user.Role(),
				SessionID: claims.ID,
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// BearerToken extrai o token do header Authorization.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(authHeader[len(prefix):]), true
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// Claims retorna as claims da requisição ou um UnauthorizedError.
func Claims(r *http.Request) (UserClaims, error) {
	claims, ok := GetUserClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		return UserClaims{}, apperror.NewUnauthorizedError("Autenticação necessária.")
	}
	return claims, nil
}

// IsAdmin informa se as claims pertencem a um administrador.
func (c UserClaims) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// WithUserClaims anexa claims ao contexto (usado pelos testes de handler).
func WithUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// PermissionMiddleware libera o acesso apenas às roles informadas.
func PermissionMiddleware(log logger.Logger, requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Tentar extrair as Claims do contexto
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, log, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			// 2. Verificar Permissão (AuthZ)
			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Warn("Acesso negado por falta de permissão.", map[string]interface{}{
				"user_id": claims.UserID,
				"path":    r.URL.Path,
			})
			response.Error(w, r, log, apperror.NewForbiddenError("Você não tem a permissão necessária."))
		}
	}
}
