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

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	FindByName(ctx context.Context, name string) (*entity.Category, error)
	FindOrCreate(ctx context.Context, name string) (*entity.Category, bool, error)
}

type categoryRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCategoryRepository(pool *pgxpool.Pool, logger *slog.Logger) CategoryRepository {
	return &categoryRepository{pool: pool, logger: logger}
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	var c entity.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM categories WHERE LOWER(name) = LOWER($1)`, name).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindOrCreate(ctx context.Context, name string) (*entity.Category, bool, error) {
	if existing, err := r.FindByName(ctx, name); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	c := &entity.Category{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name, created_at) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, ferr := r.FindByName(ctx, name)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		r.logger.Error("category create failed", "name", name, "error", err)
		return nil, false, err
	}
	r.logger.Info("category created", "category_id", c.ID, "name", name)
	return c, true, nil
}
