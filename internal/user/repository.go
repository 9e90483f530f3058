// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gestia-dev/gestia-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Deactivate(ctx context.Context, id int) error
	ListByOwner(ctx context.Context, ownerID int) ([]User, error)
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, password_hash, name, role, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, active, created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Name,
		user.Role,
		user.OwnerID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, email, password_hash, name, role, owner_id, active,
		       created_at, updated_at
		FROM users
		WHERE id = $1 AND active = TRUE`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `
		SELECT id, email, password_hash, name, role, owner_id, active,
		       created_at, updated_at
		FROM users
		WHERE email = $1 AND active = TRUE`

	var user User
	err := r.db.GetContext(ctx, &user, query, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, role = $3, updated_at = NOW()
		WHERE id = $1 AND active = TRUE
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.Name,
		user.Role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1 AND active = TRUE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("deactivate user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByOwner(
	ctx context.Context,
	ownerID int,
) ([]User, error) {
	query := `
		SELECT id, email, password_hash, name, role, owner_id, active,
		       created_at, updated_at
		FROM users
		WHERE owner_id = $1 AND active = TRUE
		ORDER BY created_at DESC`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, ownerID); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) UpdatePasswordHash(
	ctx context.Context,
	id int,
	hash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, hash); err != nil {
		return fmt.Errorf("update user password hash: %w", err)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
