// AngelaMos | 2026
// identity.go

package identity

import (
	"fmt"
)

// Role is the closed set of operational user roles. Commercial owners
// authenticate without a role claim.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleOperator      Role = "OPERATOR"
	RoleCashier       Role = "CASHIER"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdministrator, RoleOperator, RoleCashier:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	return string(r)
}

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

func ParseTokenType(s string) (TokenType, error) {
	switch TokenType(s) {
	case TokenTypeAccess, TokenTypeRefresh:
		return TokenType(s), nil
	}
	return "", fmt.Errorf("unknown token type %q", s)
}

// Identity is the verified per-request caller. It is immutable and carried
// through context, never through shared mutable state.
type Identity struct {
	UserID  int
	Email   string
	Role    *Role
	OwnerID *int
	Company string
}

func (id Identity) IsAdministrator() bool {
	return id.Role != nil && *id.Role == RoleAdministrator
}

// IsOwner reports whether the identity belongs to a commercial owner.
// Owner tokens carry no role claim; operational user tokens always do.
func (id Identity) IsOwner() bool {
	return id.Role == nil
}
