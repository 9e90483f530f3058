// AngelaMos | 2026
// repository.go

package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gestia-dev/gestia-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id int) (*Product, error)
	Update(ctx context.Context, product *Product) error
	Deactivate(ctx context.Context, id int) error
	ListForOwner(ctx context.Context, ownerID int) ([]Product, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products
			(name, description, category_id, barcode, unit_price, owner_id)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id, active, created_at, updated_at`

	err := r.db.GetContext(ctx, product, query,
		product.Name,
		product.Description,
		product.CategoryID,
		product.Barcode,
		product.UnitPrice,
		product.OwnerID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Product, error) {
	query := `
		SELECT id, name, description, category_id, barcode,
		       unit_price::text AS unit_price, owner_id, active,
		       created_at, updated_at
		FROM products
		WHERE id = $1 AND active = TRUE`

	var product Product
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &product, nil
}

func (r *repository) Update(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, category_id = $4, barcode = $5,
		    unit_price = $6::numeric, updated_at = NOW()
		WHERE id = $1 AND active = TRUE
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &product.UpdatedAt, query,
		product.ID,
		product.Name,
		product.Description,
		product.CategoryID,
		product.Barcode,
		product.UnitPrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update product: %w", core.ErrNotFound)
	}
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update product: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update product: %w", err)
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int) error {
	query := `
		UPDATE products
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND active = TRUE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("deactivate product: %w", core.ErrNotFound)
	}

	return nil
}

// ListForOwner returns the tenant's own products plus legacy rows that
// predate multi-tenancy and have no owner.
func (r *repository) ListForOwner(
	ctx context.Context,
	ownerID int,
) ([]Product, error) {
	query := `
		SELECT id, name, description, category_id, barcode,
		       unit_price::text AS unit_price, owner_id, active,
		       created_at, updated_at
		FROM products
		WHERE (owner_id = $1 OR owner_id IS NULL) AND active = TRUE
		ORDER BY name ASC`

	var products []Product
	if err := r.db.SelectContext(ctx, &products, query, ownerID); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
