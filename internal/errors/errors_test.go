package errors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperror "gofarma/internal/errors"
)

func TestMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validacao", apperror.NewValidationError("campo"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"nao autorizado", apperror.NewUnauthorizedError("Credenciais inválidas."), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"proibido", apperror.NewForbiddenError("pedido alheio"), http.StatusForbidden, "FORBIDDEN"},
		{"nao encontrado", apperror.NewNotFoundError("pedido"), http.StatusNotFound, "NOT_FOUND"},
		{"conflito", apperror.NewConflictError("email"), http.StatusConflict, "CONFLICT"},
		{"ultimo admin", apperror.NewLastAdminError(), http.StatusUnprocessableEntity, apperror.RuleLastAdmin},
		{"transicao", apperror.NewInvalidTransitionError("delivered", "cancelled"), http.StatusUnprocessableEntity, apperror.RuleInvalidTransition},
		{"interno", apperror.NewDBError("falha", errors.New("conn reset")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"nao tipado", errors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, category, _ := apperror.MapToHTTPStatus(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.category, category)
		})
	}
}

func TestMapToHTTPStatus_HidesInternalCause(t *testing.T) {
	_, _, msg := apperror.MapToHTTPStatus(apperror.NewDBError("falha", errors.New("senha do banco: xyz")))
	assert.NotContains(t, msg, "xyz")
}

func TestInternalErrorUnwrap(t *testing.T) {
	root := errors.New("driver: bad connection")
	err := apperror.NewDBError("Falha ao buscar pedido", root)

	assert.ErrorIs(t, err, root)
}

func TestIsRule(t *testing.T) {
	assert.True(t, apperror.IsRule(apperror.NewLastAdminError(), apperror.RuleLastAdmin))
	assert.False(t, apperror.IsRule(apperror.NewLastAdminError(), apperror.RuleInvalidTransition))
	assert.False(t, apperror.IsRule(apperror.NewConflictError("x"), apperror.RuleLastAdmin))
}

func TestMapToHTTPStatus_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("falha ao salvar pedido: %w", apperror.NewConflictError("versão"))

	status, category, _ := apperror.MapToHTTPStatus(wrapped)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", category)
	assert.True(t, apperror.IsRule(fmt.Errorf("x: %w", apperror.NewLastAdminError()), apperror.RuleLastAdmin))
}
