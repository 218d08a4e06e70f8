package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/middleware"
	"gofarma/internal/pkg/token"
)

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) ValidateToken(tokenString string) (*token.CustomClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.CustomClaims), args.Error(1)
}

type MockSessionResolver struct {
	mock.Mock
}

func (m *MockSessionResolver) ResolveSession(ctx context.Context, claims *token.CustomClaims) (domain.User, error) {
	args := m.Called(ctx, claims)
	return args.Get(0).(domain.User), args.Error(1)
}

func echoClaims(t *testing.T, want domain.UserRole) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, want, claims.Role)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	auth := middleware.NewAuthMiddleware(new(MockTokenService), new(MockSessionResolver), logger.NewNop())

	rec := httptest.NewRecorder()
	auth(echoClaims(t, domain.RoleUser))(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tokens := new(MockTokenService)
	tokens.On("ValidateToken", "ruim").Return(nil, errors.New("expired"))
	auth := middleware.NewAuthMiddleware(tokens, new(MockSessionResolver), logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer ruim")
	rec := httptest.NewRecorder()
	auth(echoClaims(t, domain.RoleUser))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_UsesFreshRole(t *testing.T) {
	claims := &token.CustomClaims{UserID: "u1", Role: "user", RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"}}
	tokens := new(MockTokenService)
	tokens.On("ValidateToken", "bom").Return(claims, nil)
	sessions := new(MockSessionResolver)
	// Promovido depois do login: o token ainda diz "user".
	sessions.On("ResolveSession", mock.Anything, claims).Return(domain.User{ID: "u1", IsAdmin: true}, nil)

	auth := middleware.NewAuthMiddleware(tokens, sessions, logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer bom")
	rec := httptest.NewRecorder()
	auth(echoClaims(t, domain.RoleAdmin))(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sessions.AssertExpectations(t)
}

func TestAuthMiddleware_RevokedSession(t *testing.T) {
	claims := &token.CustomClaims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"}}
	tokens := new(MockTokenService)
	tokens.On("ValidateToken", "velho").Return(claims, nil)
	sessions := new(MockSessionResolver)
	sessions.On("ResolveSession", mock.Anything, claims).Return(domain.User{}, apperror.NewUnauthorizedError("Sessão encerrada."))

	auth := middleware.NewAuthMiddleware(tokens, sessions, logger.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer velho")
	rec := httptest.NewRecorder()
	auth(echoClaims(t, domain.RoleUser))(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPermissionMiddleware(t *testing.T) {
	guard := middleware.PermissionMiddleware(logger.NewNop(), domain.RoleAdmin)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	cases := []struct {
		name   string
		ctx    context.Context
		status int
	}{
		{"sem claims", context.Background(), http.StatusUnauthorized},
		{"cliente", middleware.WithUserClaims(context.Background(), middleware.UserClaims{UserID: "u", Role: domain.RoleUser}), http.StatusForbidden},
		{"admin", middleware.WithUserClaims(context.Background(), middleware.UserClaims{UserID: "a", Role: domain.RoleAdmin}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/users", nil).WithContext(tc.ctx)
			guard(ok)(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.RateLimiter(cache.NewMemoryClient(), 2, time.Minute, logger.NewNop())
	h := limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Outro IP tem a própria janela.
	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverer(t *testing.T) {
	h := middleware.Recoverer(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestLogger_PassesStatus(t *testing.T) {
	h := middleware.RequestLogger(logger.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
