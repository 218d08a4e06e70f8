package productrepo

import (
	"context" // Usamos o pacote context do Go
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"gofarma/internal/domain"
	"gofarma/internal/errors"
	"gofarma/internal/pkg/cache"
	"gofarma/internal/pkg/logger"
)

const productColumns = `id, name, price, old_price, image, description, features, brand, category, subcategory,
        requires_prescription, in_stock, created_at, updated_at`

// Define a chave de cache para produtos.
const productCacheKey = "product:%s"

// TTL do cache-aside de produtos.
const productCacheTTL = 5 * time.Minute

// ProductRepository acessa o catálogo no PostgreSQL com cache-aside no Redis.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var oldPrice decimal.NullDecimal
	err := row.Scan(&p.ID, &p.Name, &p.Price, &oldPrice, &p.Image, &p.Description, pq.Array(&p.Features),
		&p.Brand, &p.Category, &p.Subcategory, &p.RequiresPrescription, &p.InStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if oldPrice.Valid {
		p.OldPrice = &oldPrice.Decimal
	}
	return p, nil
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const productSQL = `INSERT INTO products (` + productColumns + `)
                        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.DB.ExecContext(ctxTimeout, productSQL,
		product.ID,
		product.Name,
		product.Price,
		nullableDecimal(product.OldPrice),
		product.Image,
		product.Description,
		pq.Array(product.Features),
		product.Brand,
		product.Category,
		product.Subcategory,
		product.RequiresPrescription,
		product.InStock,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto.", err)
		return domain.Product{}, errors.NewDBError("failed to insert product", err)
	}

	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxGo, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// --- 1. Estratégia Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxGo, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		r.logger.Warn("Produto corrompido no cache; lendo do DB.", map[string]interface{}{"product_id": id})
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): seguimos para o DB.
		r.logger.Warn("Falha ao ler produto do cache.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}

	// --- 2. Busca no Banco de Dados (PostgreSQL) ---
	product, err = scanProduct(r.DB.QueryRowContext(ctxGo, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- 3. Estratégia Cache-Aside (WRITE) ---
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.Cache.Set(ctxGo, key, productJSON, productCacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"product_id": id, "error": setErr.Error()})
		}
	}

	return product, nil
}

// FindAll lista produtos paginados com filtros; retorna também o total sem paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	filter = filter.Normalize()

	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Search != "" {
		add("(name ILIKE $%[1]d OR brand ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Subcategory != "" {
		add("subcategory = $%d", filter.Subcategory)
	}
	if filter.InStockOnly {
		conds = append(conds, "in_stock")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewDBError("Falha ao contar produtos", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY name, id LIMIT %d OFFSET %d`,
		productColumns, where, filter.Limit, filter.Offset())
	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, 0, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, errors.NewDBError("Falha ao ler produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewDBError("Falha ao iterar produtos", err)
	}
	return products, total, nil
}

// Update grava o produto e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE products
        SET name = $1, price = $2, old_price = $3, image = $4, description = $5, features = $6, brand = $7,
            category = $8, subcategory = $9, requires_prescription = $10, in_stock = $11, updated_at = $12
        WHERE id = $13`,
		p.Name, p.Price, nullableDecimal(p.OldPrice), p.Image, p.Description, pq.Array(p.Features), p.Brand,
		p.Category, p.Subcategory, p.RequiresPrescription, p.InStock, p.UpdatedAt, p.ID)
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", p.ID))
	}

	r.invalidate(ctxTimeout, p.ID)
	return p, nil
}

// Delete remove o produto e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.NewDBError("Falha ao excluir produto", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.invalidate(ctxTimeout, id)
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar produto no cache.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}
