package categoryrepo

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

// CategoryRepository persiste a árvore de categorias (categoria + subcategorias).
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCategoryRepository cria o repositório de categorias.
func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

func slugConflict(err error) bool {
	return database.IsUniqueViolation(err, "categories_slug_key") ||
		database.IsUniqueViolation(err, "subcategories_parent_id_slug_key")
}

func insertSubcategories(ctx context.Context, tx *sql.Tx, c domain.Category) error {
	for _, sub := range c.Subcategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subcategories (id, parent_id, name, slug) VALUES ($1,$2,$3,$4)`,
			sub.ID, c.ID, sub.Name, sub.Slug); err != nil {
			return err
		}
	}
	return nil
}

// Save insere a categoria e suas subcategorias na mesma transação.
func (r *CategoryRepository) Save(ctx context.Context, c domain.Category) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Category{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctxTimeout,
		`INSERT INTO categories (id, name, slug, description, icon, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.Name, c.Slug, c.Description, c.Icon, c.CreatedAt, c.UpdatedAt)
	if err == nil {
		err = insertSubcategories(ctxTimeout, tx, c)
	}
	if err != nil {
		if slugConflict(err) {
			return domain.Category{}, apperror.NewConflictError(fmt.Sprintf("Já existe uma categoria com o slug '%s'.", c.Slug))
		}
		r.logger.Error("Falha ao inserir categoria.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao inserir categoria", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Category{}, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return c, nil
}

// FindByID busca a categoria com as subcategorias.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var c domain.Category
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, name, slug, description, icon, created_at, updated_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria %s não encontrada.", id))
	}
	if err != nil {
		return domain.Category{}, apperror.NewDBError("Falha ao buscar categoria", err)
	}

	subs, err := r.subcategories(ctxTimeout, `WHERE parent_id = $1`, id)
	if err != nil {
		return domain.Category{}, err
	}
	c.Subcategories = subs[c.ID]
	if c.Subcategories == nil {
		c.Subcategories = []domain.Subcategory{}
	}
	return c, nil
}

// List retorna todas as categorias ordenadas por nome.
func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, name, slug, description, icon, created_at, updated_at FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar categorias", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao ler categoria", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar categorias", err)
	}

	subs, err := r.subcategories(ctxTimeout, "")
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].Subcategories = subs[categories[i].ID]
		if categories[i].Subcategories == nil {
			categories[i].Subcategories = []domain.Subcategory{}
		}
	}
	return categories, nil
}

func (r *CategoryRepository) subcategories(ctx context.Context, where string, args ...interface{}) (map[string][]domain.Subcategory, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, parent_id, name, slug FROM subcategories `+where+` ORDER BY name, id`, args...)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar subcategorias", err)
	}
	defer rows.Close()

	out := map[string][]domain.Subcategory{}
	for rows.Next() {
		var s domain.Subcategory
		if err := rows.Scan(&s.ID, &s.ParentID, &s.Name, &s.Slug); err != nil {
			return nil, apperror.NewDBError("Falha ao ler subcategoria", err)
		}
		out[s.ParentID] = append(out[s.ParentID], s)
	}
	return out, rows.Err()
}

// Update regrava a categoria e substitui o conjunto de subcategorias.
func (r *CategoryRepository) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Category{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctxTimeout,
		`UPDATE categories SET name = $1, slug = $2, description = $3, icon = $4, updated_at = $5 WHERE id = $6`,
		c.Name, c.Slug, c.Description, c.Icon, c.UpdatedAt, c.ID)
	if err != nil {
		if slugConflict(err) {
			return domain.Category{}, apperror.NewConflictError(fmt.Sprintf("Já existe uma categoria com o slug '%s'.", c.Slug))
		}
		return domain.Category{}, apperror.NewDBError("Falha ao atualizar categoria", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria %s não encontrada.", c.ID))
	}

	if _, err := tx.ExecContext(ctxTimeout, `DELETE FROM subcategories WHERE parent_id = $1`, c.ID); err != nil {
		return domain.Category{}, apperror.NewDBError("Falha ao limpar subcategorias", err)
	}
	if err := insertSubcategories(ctxTimeout, tx, c); err != nil {
		if slugConflict(err) {
			return domain.Category{}, apperror.NewConflictError("Subcategorias com slug repetido.")
		}
		return domain.Category{}, apperror.NewDBError("Falha ao inserir subcategorias", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Category{}, apperror.NewDBError("Falha ao commitar transação", err)
	}
	return c, nil
}

// Delete remove a categoria (subcategorias em cascata).
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return apperror.NewDBError("Falha ao excluir categoria", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Categoria %s não encontrada.", id))
	}
	return nil
}
