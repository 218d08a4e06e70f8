package orderrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
)

// Itens, endereço, pagamento e histórico são snapshots gravados como JSONB.
const orderColumns = `id, user_id, status, status_history, items, subtotal, shipping, discount, total,
        shipping_method, delivery_address, payment, version, created_at, updated_at`

// OrderRepository persiste pedidos no PostgreSQL com controle de concorrência otimista (OCC).
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var history, items, address, paymentRaw []byte
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &history, &items, &o.Subtotal, &o.Shipping, &o.Discount,
		&o.Total, &o.ShippingMethod, &address, &paymentRaw, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	if err := json.Unmarshal(history, &o.StatusHistory); err != nil {
		return domain.Order{}, fmt.Errorf("status_history corrompido: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("items corrompido: %w", err)
	}
	if err := json.Unmarshal(address, &o.DeliveryAddress); err != nil {
		return domain.Order{}, fmt.Errorf("delivery_address corrompido: %w", err)
	}
	if err := json.Unmarshal(paymentRaw, &o.Payment); err != nil {
		return domain.Order{}, fmt.Errorf("payment corrompido: %w", err)
	}
	return o, nil
}

// Save insere um novo pedido.
func (r *OrderRepository) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	r.logger.Debug("Salvando pedido no repositório.", map[string]interface{}{"order_id": o.ID, "user_id": o.UserID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	history, err := json.Marshal(o.StatusHistory)
	if err != nil {
		return domain.Order{}, apperror.NewInternalError("Falha ao serializar histórico", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return domain.Order{}, apperror.NewInternalError("Falha ao serializar itens", err)
	}
	address, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return domain.Order{}, apperror.NewInternalError("Falha ao serializar endereço", err)
	}
	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return domain.Order{}, apperror.NewInternalError("Falha ao serializar pagamento", err)
	}

	const insertSQL = `INSERT INTO orders (` + orderColumns + `)
                       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err = r.DB.ExecContext(ctxTimeout, insertSQL,
		o.ID, o.UserID, o.Status, history, items, o.Subtotal, o.Shipping, o.Discount, o.Total,
		o.ShippingMethod, address, payment, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao inserir pedido", err)
	}

	r.logger.Info("Pedido salvo com sucesso.", map[string]interface{}{"order_id": o.ID, "total": o.Total.String()})
	return o, nil
}

// FindByID busca um pedido sem escopo de usuário (o controle de acesso é do chamador).
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	o, err := scanOrder(r.DB.QueryRowContext(ctxTimeout, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao buscar pedido", err)
	}
	return o, nil
}

// ListByUser lista os pedidos do usuário, mais recentes primeiro.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

// List lista todos os pedidos; status vazio não filtra.
func (r *OrderRepository) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status == "" {
		return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC, id`, status)
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos.", err)
		return nil, apperror.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler pedido", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar pedidos", err)
	}
	return orders, nil
}

// UpdateStatus grava status e histórico se a versão ainda for o.Version (OCC).
// O total nunca é regravado.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o domain.Order) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	history, err := json.Marshal(o.StatusHistory)
	if err != nil {
		return domain.Order{}, apperror.NewInternalError("Falha ao serializar histórico", err)
	}

	const updateSQL = `
        UPDATE orders
        SET status = $1, status_history = $2, version = version + 1, updated_at = $3
        WHERE id = $4 AND version = $5`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, o.Status, history, o.UpdatedAt, o.ID, o.Version)
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao atualizar pedido", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) do pedido.", map[string]interface{}{
			"order_id":         o.ID,
			"expected_version": o.Version,
		})
		return domain.Order{}, apperror.NewConflictError("O pedido foi modificado por outra operação. Tente novamente.")
	}

	o.Version++
	return o, nil
}
