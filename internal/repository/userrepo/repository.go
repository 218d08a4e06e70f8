package userrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gofarma/internal/domain"
	apperror "gofarma/internal/errors"
	"gofarma/internal/pkg/database"
	"gofarma/internal/pkg/logger"
)

const userColumns = `id, name, email, password_hash, phone, birth_date, cpf, is_admin, version, created_at, updated_at`

// UserRepository persiste usuários no PostgreSQL. Os endereços são carregados junto (addresses).
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.BirthDate, &u.CPF,
		&u.IsAdmin, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Save insere um novo usuário no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	// 1. Configura Contexto com Timeout
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Executa o INSERT
	const insertSQL = `INSERT INTO users (` + userColumns + `)
                       VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.DB.ExecContext(ctxTimeout, insertSQL,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Phone, user.BirthDate, user.CPF,
		user.IsAdmin, user.Version, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		// Violação da UNIQUE de email vira DuplicateEmail (409).
		if database.IsUniqueViolation(err, "users_email_key") {
			return domain.User{}, apperror.NewConflictError("Este e-mail já está cadastrado.")
		}
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID})
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}
	return user, nil
}

// FindByID busca um usuário e seus endereços.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail busca um usuário pelo email (já normalizado pelo serviço).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, arg))
	if err == sql.ErrNoRows {
		return domain.User{}, apperror.NewNotFoundError("Usuário não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}

	addresses, err := r.loadAddresses(ctxTimeout, []string{user.ID})
	if err != nil {
		return domain.User{}, err
	}
	user.Addresses = addresses[user.ID]
	if user.Addresses == nil {
		user.Addresses = []domain.Address{}
	}
	return user, nil
}

// List retorna todos os usuários (painel administrativo), com endereços.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		r.logger.Error("Falha ao listar usuários.", err)
		return nil, apperror.NewDBError("Falha ao listar usuários", err)
	}
	defer rows.Close()

	users := []domain.User{}
	ids := []string{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler usuário", err)
		}
		users = append(users, u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar usuários", err)
	}

	addresses, err := r.loadAddresses(ctxTimeout, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Addresses = addresses[users[i].ID]
		if users[i].Addresses == nil {
			users[i].Addresses = []domain.Address{}
		}
	}
	return users, nil
}

// Update grava os dados de perfil com controle de concorrência otimista (OCC).
// user.Version deve ser a versão lida; a senha e o flag de admin não são tocados aqui.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
        UPDATE users
        SET name = $1, email = $2, phone = $3, birth_date = $4, cpf = $5, version = version + 1, updated_at = $6
        WHERE id = $7 AND version = $8`

	now := time.Now().UTC()
	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		user.Name, user.Email, user.Phone, user.BirthDate, user.CPF, now, user.ID, user.Version)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return domain.User{}, apperror.NewConflictError("Este e-mail já está cadastrado.")
		}
		r.logger.Error("Falha ao atualizar usuário.", err)
		return domain.User{}, apperror.NewDBError("Falha ao atualizar usuário", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.User{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		// Ou o usuário sumiu, ou a versão está desatualizada.
		if _, findErr := r.FindByID(ctx, user.ID); findErr != nil {
			return domain.User{}, findErr
		}
		r.logger.Warn("Falha no controle de concorrência otimista (OCC) do usuário.", map[string]interface{}{
			"user_id":          user.ID,
			"expected_version": user.Version,
		})
		return domain.User{}, apperror.NewConflictError("O perfil foi modificado por outra sessão. Recarregue e tente novamente.")
	}

	return r.FindByID(ctx, user.ID)
}

// lockAdmins bloqueia as linhas de admin na transação e retorna seus IDs.
// Duas demoções concorrentes ficam serializadas por este lock.
func lockAdmins(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM users WHERE is_admin ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func lockUser(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var isAdmin bool
	err := tx.QueryRowContext(ctx, `SELECT is_admin FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&isAdmin)
	return isAdmin, err
}

// SetAdmin altera o flag de admin. Remover o último admin retorna LAST_ADMIN sem alterar nada.
func (r *UserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.User{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	// 1. Bloquear os admins e o alvo
	adminIDs, err := lockAdmins(ctxTimeout, tx)
	if err != nil {
		return domain.User{}, apperror.NewDBError("Falha ao bloquear administradores", err)
	}
	if _, err := lockUser(ctxTimeout, tx, id); err == sql.ErrNoRows {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário %s não encontrado.", id))
	} else if err != nil {
		return domain.User{}, apperror.NewDBError("Falha ao bloquear usuário", err)
	}

	// 2. Guarda do último admin
	if !isAdmin && domain.WouldRemoveLastAdmin(adminIDs, id) {
		r.logger.Warn("Tentativa de remover o último administrador.", map[string]interface{}{"user_id": id})
		return domain.User{}, apperror.NewLastAdminError()
	}

	// 3. Atualizar
	_, err = tx.ExecContext(ctxTimeout,
		`UPDATE users SET is_admin = $1, version = version + 1, updated_at = $2 WHERE id = $3`,
		isAdmin, time.Now().UTC(), id)
	if err != nil {
		return domain.User{}, apperror.NewDBError("Falha ao atualizar flag de admin", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Flag de admin alterado.", map[string]interface{}{"user_id": id, "is_admin": isAdmin})
	return r.FindByID(ctx, id)
}

// Delete remove o usuário (e, em cascata, seus endereços) com a mesma guarda do último admin.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	adminIDs, err := lockAdmins(ctxTimeout, tx)
	if err != nil {
		return apperror.NewDBError("Falha ao bloquear administradores", err)
	}
	isAdmin, err := lockUser(ctxTimeout, tx, id)
	if err == sql.ErrNoRows {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário %s não encontrado.", id))
	}
	if err != nil {
		return apperror.NewDBError("Falha ao bloquear usuário", err)
	}

	if isAdmin && domain.WouldRemoveLastAdmin(adminIDs, id) {
		r.logger.Warn("Tentativa de excluir o último administrador.", map[string]interface{}{"user_id": id})
		return apperror.NewLastAdminError()
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return apperror.NewDBError("Falha ao excluir usuário", err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Usuário excluído.", map[string]interface{}{"user_id": id})
	return nil
}

// CountAdmins conta os administradores (bootstrap).
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM users WHERE is_admin`).Scan(&n); err != nil {
		return 0, apperror.NewDBError("Falha ao contar administradores", err)
	}
	return n, nil
}
