// AngelaMos | 2026
// repository.go

package permission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Permission, error)
	ActiveCodes(ctx context.Context) ([]string, error)
	CodesForRole(ctx context.Context, role identity.Role) ([]string, error)
	RoleHasPermission(
		ctx context.Context,
		role identity.Role,
		permissionID int,
	) (bool, error)
	OverrideCodes(ctx context.Context, userID int) ([]string, error)
	HasOverride(ctx context.Context, userID, permissionID int) (bool, error)
	InsertOverride(ctx context.Context, userID, permissionID, grantedBy int) error
	DeleteOverride(ctx context.Context, userID, permissionID int) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetByCode(
	ctx context.Context,
	code string,
) (*Permission, error) {
	query := `
		SELECT id, code, name, category, active
		FROM permissions
		WHERE code = $1`

	var p Permission
	err := r.db.GetContext(ctx, &p, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get permission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}

	return &p, nil
}

func (r *repository) ActiveCodes(ctx context.Context) ([]string, error) {
	query := `SELECT code FROM permissions WHERE active = TRUE ORDER BY code`

	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, fmt.Errorf("list active permission codes: %w", err)
	}

	return codes, nil
}

func (r *repository) CodesForRole(
	ctx context.Context,
	role identity.Role,
) ([]string, error) {
	query := `
		SELECT p.code
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role = $1 AND p.active = TRUE
		ORDER BY p.code`

	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, role); err != nil {
		return nil, fmt.Errorf("list role permission codes: %w", err)
	}

	return codes, nil
}

func (r *repository) RoleHasPermission(
	ctx context.Context,
	role identity.Role,
	permissionID int,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM role_permissions
			WHERE role = $1 AND permission_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, role, permissionID); err != nil {
		return false, fmt.Errorf("check role permission: %w", err)
	}

	return exists, nil
}

func (r *repository) OverrideCodes(
	ctx context.Context,
	userID int,
) ([]string, error) {
	query := `
		SELECT p.code
		FROM user_permissions up
		JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1 AND p.active = TRUE
		ORDER BY p.code`

	var codes []string
	if err := r.db.SelectContext(ctx, &codes, query, userID); err != nil {
		return nil, fmt.Errorf("list override codes: %w", err)
	}

	return codes, nil
}

func (r *repository) HasOverride(
	ctx context.Context,
	userID, permissionID int,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_permissions
			WHERE user_id = $1 AND permission_id = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, permissionID); err != nil {
		return false, fmt.Errorf("check override: %w", err)
	}

	return exists, nil
}

// InsertOverride is idempotent: a concurrent duplicate grant lands on the
// primary key and is silently absorbed.
func (r *repository) InsertOverride(
	ctx context.Context,
	userID, permissionID, grantedBy int,
) error {
	query := `
		INSERT INTO user_permissions (user_id, permission_id, granted_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, permission_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, permissionID, grantedBy); err != nil {
		return fmt.Errorf("insert override: %w", err)
	}

	return nil
}

// DeleteOverride is delete-if-exists: revoking an absent override is not
// an error.
func (r *repository) DeleteOverride(
	ctx context.Context,
	userID, permissionID int,
) error {
	query := `
		DELETE FROM user_permissions
		WHERE user_id = $1 AND permission_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, permissionID); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}

	return nil
}
