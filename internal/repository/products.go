package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
)

type ProductRepository interface {
	FindByName(ctx context.Context, name string) (*entity.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	// Create inserts a new product; common.ErrInvalidInput wraps a duplicate name.
	Create(ctx context.Context, p *entity.Product) (*entity.Product, error)
	// AddStock increments stock by qty (a purchase receipt).
	AddStock(ctx context.Context, id uuid.UUID, qty int) error
	SetCategory(ctx context.Context, id, categoryID uuid.UUID) error
	SetSupplier(ctx context.Context, id, supplierID uuid.UUID) error
}

type productRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewProductRepository(pool *pgxpool.Pool, logger *slog.Logger) ProductRepository {
	return &productRepository{pool: pool, logger: logger}
}

const productColumns = `id, name, description, sku, category_id, supplier_id, unit_price, stock, min_stock, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.CategoryID, &p.SupplierID,
		&p.UnitPrice, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) FindByName(ctx context.Context, name string) (*entity.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE LOWER(name) = LOWER($1)`, name)
	return scanProduct(row)
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) (*entity.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Description, p.SKU, p.CategoryID, p.SupplierID,
		p.UnitPrice, p.Stock, p.MinStock, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewAppError("PRODUCT_EXISTS", p.Name, common.ErrInvalidInput)
		}
		r.logger.Error("product create failed", "name", p.Name, "error", err)
		return nil, err
	}
	r.logger.Info("product created", "product_id", p.ID, "name", p.Name, "sku", p.SKU)
	return p, nil
}

func (r *productRepository) AddStock(ctx context.Context, id uuid.UUID, qty int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = $3 WHERE id = $1`,
		id, qty, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *productRepository) SetCategory(ctx context.Context, id, categoryID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET category_id = $2, updated_at = $3 WHERE id = $1`,
		id, categoryID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *productRepository) SetSupplier(ctx context.Context, id, supplierID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET supplier_id = $2, updated_at = $3 WHERE id = $1`,
		id, supplierID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
