package cartrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/logger"
	"gofarma/internal/pkg/metrics"
)

const cartKey = "cart:%s"

// CartRepository guarda o carrinho de cada usuário no Redis como JSON.
// As mutações passam por cache.Update (WATCH/MULTI), sem perda de escrita entre abas.
type CartRepository struct {
	Cache   cache.Client
	TTL     time.Duration
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewCartRepository cria o repositório de carrinhos.
func NewCartRepository(c cache.Client, ttl time.Duration, logger logger.Logger, m *metrics.Metrics) *CartRepository {
	return &CartRepository{Cache: c, TTL: ttl, logger: logger, metrics: m}
}

// decode converte o valor gravado; dado corrompido vira carrinho vazio e é apenas logado.
func (r *CartRepository) decode(userID, raw string, found bool) domain.Cart {
	cart := domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	if !found || raw == "" {
		return cart
	}
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		r.logger.Warn("Carrinho corrompido no armazenamento; usando carrinho vazio.", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		r.metrics.StorageFallback("cart")
		return domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	}
	cart.UserID = userID
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart
}

// Get lê o carrinho do usuário (vazio se ausente).
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	raw, err := r.Cache.Get(ctx, fmt.Sprintf(cartKey, userID))
	if err == cache.ErrCacheMiss {
		return r.decode(userID, "", false), nil
	}
	if err != nil {
		return domain.Cart{}, apperror.NewCacheError("Falha ao ler carrinho", err)
	}
	return r.decode(userID, raw, true), nil
}

// Update aplica fn ao carrinho atual de forma atômica e retorna o resultado gravado.
func (r *CartRepository) Update(ctx context.Context, userID string, fn func(*domain.Cart) error) (domain.Cart, error) {
	var result domain.Cart
	_, err := r.Cache.Update(ctx, fmt.Sprintf(cartKey, userID), r.TTL, func(current string, found bool) (string, error) {
		cart := r.decode(userID, current, found)
		if err := fn(&cart); err != nil {
			return "", err
		}
		cart.UpdatedAt = time.Now().UTC()

		raw, err := json.Marshal(cart)
		if err != nil {
			return "", err
		}
		result = cart
		return string(raw), nil
	})
	if err != nil {
		var appErr apperror.AppError
		if errors.As(err, &appErr) {
			return domain.Cart{}, err
		}
		return domain.Cart{}, apperror.NewCacheError("Falha ao atualizar carrinho", err)
	}
	return result, nil
}

// Delete remove o carrinho do usuário.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(cartKey, userID)); err != nil {
		return apperror.NewCacheError("Falha ao limpar carrinho", err)
	}
	return nil
}
