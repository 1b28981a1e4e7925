package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockdesk-app/stockdesk/internal/entity"
)

type PurchaseRepository interface {
	// Create writes the purchase header and its items in one transaction.
	Create(ctx context.Context, p *entity.Purchase) (*entity.Purchase, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*entity.Purchase, error)
	ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.Purchase, error)
}

type purchaseRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPurchaseRepository(pool *pgxpool.Pool, logger *slog.Logger) PurchaseRepository {
	return &purchaseRepository{pool: pool, logger: logger}
}

func (r *purchaseRepository) Create(ctx context.Context, p *entity.Purchase) (*entity.Purchase, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin purchase tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO purchases (id, supplier_id, invoice_number, purchase_date, total_amount, tax_amount, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.SupplierID, p.InvoiceNumber, p.PurchaseDate, p.TotalAmount, p.TaxAmount, p.Notes, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}

	for i := range p.Items {
		item := &p.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.PurchaseID = p.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO purchase_items (id, purchase_id, product_id, quantity, unit_price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.PurchaseID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("insert purchase item %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase: %w", err)
	}
	r.logger.Info("purchase created",
		"purchase_id", p.ID, "supplier_id", p.SupplierID,
		"items", len(p.Items), "total", p.TotalAmount,
	)
	return p, nil
}

func (r *purchaseRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*entity.Purchase, error) {
	return r.list(ctx, `WHERE supplier_id = $1`, supplierID)
}

func (r *purchaseRepository) ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.Purchase, error) {
	switch {
	case from != nil && to != nil:
		return r.list(ctx, `WHERE purchase_date >= $1 AND purchase_date <= $2`, *from, *to)
	case from != nil:
		return r.list(ctx, `WHERE purchase_date >= $1`, *from)
	case to != nil:
		return r.list(ctx, `WHERE purchase_date <= $1`, *to)
	default:
		return r.list(ctx, ``)
	}
}

func (r *purchaseRepository) list(ctx context.Context, where string, args ...any) ([]*entity.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, supplier_id, invoice_number, purchase_date, total_amount, tax_amount, notes, created_at
		 FROM purchases `+where+` ORDER BY purchase_date`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*entity.Purchase
	for rows.Next() {
		var p entity.Purchase
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.InvoiceNumber, &p.PurchaseDate,
			&p.TotalAmount, &p.TaxAmount, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range result {
		items, err := r.listItems(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Items = items
	}
	return result, nil
}

func (r *purchaseRepository) listItems(ctx context.Context, purchaseID uuid.UUID) ([]entity.PurchaseItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, purchase_id, product_id, quantity, unit_price, total_price
		 FROM purchase_items WHERE purchase_id = $1`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.PurchaseItem
	for rows.Next() {
		var it entity.PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
