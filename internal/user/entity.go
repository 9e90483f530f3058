// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/gestia-dev/gestia-backend/internal/identity"
)

// User is an operational account (employee) attached to a commercial
// owner. Operational users never hold their own entitlement; they inherit
// it from the owner referenced by OwnerID.
type User struct {
	ID           int           `db:"id"`
	Email        string        `db:"email"`
	PasswordHash string        `db:"password_hash"`
	Name         string        `db:"name"`
	Role         identity.Role `db:"role"`
	OwnerID      *int          `db:"owner_id"`
	Active       bool          `db:"active"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

func (u *User) IsAdministrator() bool {
	return u.Role == identity.RoleAdministrator
}
