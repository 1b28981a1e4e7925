package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockdesk-app/stockdesk/internal/common"
	"github.com/stockdesk-app/stockdesk/internal/entity"
)

// pgUniqueViolation is the Postgres error code for unique constraint hits;
// name-keyed creates treat it as "someone else created it first".
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

type SupplierRepository interface {
	// FindByName matches case-insensitively and exactly; common.ErrNotFound on miss.
	FindByName(ctx context.Context, name string) (*entity.Supplier, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Supplier, error)
	// FindOrCreate returns the existing supplier with this name or creates a
	// bare record (empty contact fields). The bool reports a create.
	FindOrCreate(ctx context.Context, name string) (*entity.Supplier, bool, error)
}

type supplierRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSupplierRepository(pool *pgxpool.Pool, logger *slog.Logger) SupplierRepository {
	return &supplierRepository{pool: pool, logger: logger}
}

const supplierColumns = `id, name, contact_name, email, phone, address, created_at, updated_at`

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var s entity.Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactName, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepository) FindByName(ctx context.Context, name string) (*entity.Supplier, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE LOWER(name) = LOWER($1)`, name)
	return scanSupplier(row)
}

func (r *supplierRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Supplier, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	return scanSupplier(row)
}

func (r *supplierRepository) FindOrCreate(ctx context.Context, name string) (*entity.Supplier, bool, error) {
	if existing, err := r.FindByName(ctx, name); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	s := &entity.Supplier{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO suppliers (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// lost the create race; the row exists now
			existing, ferr := r.FindByName(ctx, name)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		r.logger.Error("supplier create failed", "name", name, "error", err)
		return nil, false, err
	}
	r.logger.Info("supplier created", "supplier_id", s.ID, "name", name)
	return s, true, nil
}
