// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gestia-dev/gestia-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, owner *Owner) error
	GetByID(ctx context.Context, id int) (*Owner, error)
	GetByEmail(ctx context.Context, email string) (*Owner, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
	EndExpiredTrial(ctx context.Context, id int, now time.Time) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, owner *Owner) error {
	query := `
		INSERT INTO commercial_owners
			(email, password_hash, name, company_name, in_trial, trial_ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.GetContext(ctx, owner, query,
		strings.ToLower(owner.Email),
		owner.PasswordHash,
		owner.Name,
		owner.Company,
		owner.InTrial,
		owner.TrialEndsAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create owner: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create owner: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Owner, error) {
	query := `
		SELECT id, email, password_hash, name, company_name, in_trial,
		       trial_ends_at, active, created_at, updated_at
		FROM commercial_owners
		WHERE id = $1 AND active = TRUE`

	var owner Owner
	err := r.db.GetContext(ctx, &owner, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	return &owner, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Owner, error) {
	query := `
		SELECT id, email, password_hash, name, company_name, in_trial,
		       trial_ends_at, active, created_at, updated_at
		FROM commercial_owners
		WHERE email = $1 AND active = TRUE`

	var owner Owner
	err := r.db.GetContext(ctx, &owner, query, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get owner by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get owner by email: %w", err)
	}

	return &owner, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM commercial_owners WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, strings.ToLower(email)); err != nil {
		return false, fmt.Errorf("check owner email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) UpdatePasswordHash(
	ctx context.Context,
	id int,
	hash string,
) error {
	query := `
		UPDATE commercial_owners
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, hash); err != nil {
		return fmt.Errorf("update owner password hash: %w", err)
	}

	return nil
}

// EndExpiredTrial clears a trial window that has already lapsed. Rows
// whose trial is still running are left untouched.
func (r *repository) EndExpiredTrial(
	ctx context.Context,
	id int,
	now time.Time,
) error {
	query := `
		UPDATE commercial_owners
		SET in_trial = FALSE, updated_at = NOW()
		WHERE id = $1
		  AND in_trial = TRUE
		  AND trial_ends_at IS NOT NULL
		  AND trial_ends_at < $2`

	if _, err := r.db.ExecContext(ctx, query, id, now); err != nil {
		return fmt.Errorf("end expired trial: %w", err)
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
