package userrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/logger"
)

const addressColumns = `id, user_id, street, number, complement, neighborhood, city, state, zip_code, is_default, created_at`

// AddressRepository persiste o livro de endereços. Toda mudança de endereço padrão
// acontece em uma única transação com a linha do usuário bloqueada.
type AddressRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAddressRepository cria o repositório de endereços.
func NewAddressRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *AddressRepository {
	return &AddressRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

func scanAddress(row rowScanner) (domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.Number, &a.Complement, &a.Neighborhood,
		&a.City, &a.State, &a.ZipCode, &a.IsDefault, &a.CreatedAt)
	return a, err
}

// loadAddresses agrupa por usuário os endereços dos IDs informados.
func (r *UserRepository) loadAddresses(ctx context.Context, userIDs []string) (map[string][]domain.Address, error) {
	out := make(map[string][]domain.Address, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = ANY($1) ORDER BY created_at, id`,
		pq.Array(userIDs))
	if err != nil {
		r.logger.Error("Falha ao carregar endereços.", err)
		return nil, apperror.NewDBError("Falha ao carregar endereços", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler endereço", err)
		}
		out[a.UserID] = append(out[a.UserID], a)
	}
	return out, rows.Err()
}

// ListByUser lista os endereços do usuário em ordem de criação.
func (r *AddressRepository) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	return listByUser(ctxTimeout, r.DB, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func listByUser(ctx context.Context, q querier, userID string) ([]domain.Address, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar endereços", err)
	}
	defer rows.Close()

	addresses := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler endereço", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar endereços", err)
	}
	return addresses, nil
}

// FindByID busca um endereço do usuário; endereços de outros usuários não são encontrados.
func (r *AddressRepository) FindByID(ctx context.Context, userID, id string) (domain.Address, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	a, err := scanAddress(r.DB.QueryRowContext(ctxTimeout,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if err == sql.ErrNoRows {
		return domain.Address{}, apperror.NewNotFoundError(fmt.Sprintf("Endereço %s não encontrado.", id))
	}
	if err != nil {
		return domain.Address{}, apperror.NewDBError("Falha ao buscar endereço", err)
	}
	return a, nil
}

// begin abre a transação e bloqueia a linha do dono dos endereços.
func (r *AddressRepository) begin(ctx context.Context, userID string) (*sql.Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	if err != nil {
		tx.Rollback()
		return nil, apperror.NewDBError("Falha ao bloquear usuário", err)
	}
	return tx, nil
}

// Insert adiciona o endereço. O primeiro endereço do usuário, ou um pedido como padrão,
// desmarca os demais e entra com isDefault = true.
func (r *AddressRepository) Insert(ctx context.Context, a domain.Address) (domain.Address, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.begin(ctxTimeout, a.UserID)
	if err != nil {
		return domain.Address{}, err
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&existing); err != nil {
		return domain.Address{}, apperror.NewDBError("Falha ao contar endereços", err)
	}

	a.IsDefault = domain.BecomesDefault(existing, a.IsDefault)
	if a.IsDefault {
		if _, err := tx.ExecContext(ctxTimeout, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1`, a.UserID); err != nil {
			return domain.Address{}, apperror.NewDBError("Falha ao desmarcar endereços", err)
		}
	}

	_, err = tx.ExecContext(ctxTimeout,
		`INSERT INTO addresses (`+addressColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.UserID, a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, a.ZipCode, a.IsDefault, a.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir endereço.", err)
		return domain.Address{}, apperror.NewDBError("Falha ao inserir endereço", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Address{}, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return a, nil
}

// Update grava o endereço já mesclado; se ele é o padrão, os demais são desmarcados na mesma transação.
func (r *AddressRepository) Update(ctx context.Context, a domain.Address) (domain.Address, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.begin(ctxTimeout, a.UserID)
	if err != nil {
		return domain.Address{}, err
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctxTimeout,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND id <> $2`, a.UserID, a.ID); err != nil {
			return domain.Address{}, apperror.NewDBError("Falha ao desmarcar endereços", err)
		}
	}

	result, err := tx.ExecContext(ctxTimeout, `
        UPDATE addresses
        SET street = $1, number = $2, complement = $3, neighborhood = $4, city = $5, state = $6, zip_code = $7, is_default = $8
        WHERE id = $9 AND user_id = $10`,
		a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, a.ZipCode, a.IsDefault, a.ID, a.UserID)
	if err != nil {
		return domain.Address{}, apperror.NewDBError("Falha ao atualizar endereço", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Address{}, apperror.NewNotFoundError(fmt.Sprintf("Endereço %s não encontrado.", a.ID))
	}

	if err := tx.Commit(); err != nil {
		return domain.Address{}, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return a, nil
}

// Delete remove o endereço. Nenhum outro é promovido a padrão.
func (r *AddressRepository) Delete(ctx context.Context, userID, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperror.NewDBError("Falha ao excluir endereço", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Endereço %s não encontrado.", id))
	}
	return nil
}

// SetDefault marca exatamente um endereço como padrão em um único UPDATE.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id string) ([]domain.Address, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.begin(ctxTimeout, userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctxTimeout,
		`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists); err != nil {
		return nil, apperror.NewDBError("Falha ao buscar endereço", err)
	}
	if !exists {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Endereço %s não encontrado.", id))
	}

	if _, err := tx.ExecContext(ctxTimeout,
		`UPDATE addresses SET is_default = (id = $2) WHERE user_id = $1`, userID, id); err != nil {
		return nil, apperror.NewDBError("Falha ao definir endereço padrão", err)
	}

	addresses, err := listByUser(ctxTimeout, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return addresses, nil
}
