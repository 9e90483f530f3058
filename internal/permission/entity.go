// AngelaMos | 2026
// entity.go

package permission

import (
	"time"

	"github.com/gestia-dev/gestia-backend/internal/identity"
)

type Permission struct {
	ID       int    `db:"id"`
	Code     string `db:"code"`
	Name     string `db:"name"`
	Category string `db:"category"`
	Active   bool   `db:"active"`
}

// RolePermission is a row of the static role baseline. Baseline grants are
// not revocable per user.
type RolePermission struct {
	Role         identity.Role `db:"role"`
	PermissionID int           `db:"permission_id"`
}

// UserPermission is an additive per-user override on top of the role
// baseline. Overrides can only add permissions, never subtract them.
type UserPermission struct {
	UserID       int       `db:"user_id"`
	PermissionID int       `db:"permission_id"`
	GrantedAt    time.Time `db:"granted_at"`
	GrantedBy    int       `db:"granted_by"`
}

// Permission codes used by the HTTP layer.
const (
	CodeProductsView   = "PRODUCTS_VIEW"
	CodeProductsCreate = "PRODUCTS_CREATE"
	CodeProductsUpdate = "PRODUCTS_UPDATE"
	CodeProductsDelete = "PRODUCTS_DELETE"
	CodeUsersCreate    = "USERS_CREATE"
	CodeUsersManage    = "USERS_PERMISSIONS"
)
