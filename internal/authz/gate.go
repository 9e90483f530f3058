// AngelaMos | 2026
// gate.go

package authz

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int, code string) (bool, error)
}

type EntitlementChecker interface {
	IsEntitledOwner(ctx context.Context, ownerID int) bool
	IsEntitledEmail(ctx context.Context, email string) bool
}

// EmployeeOwnerResolver looks up the owning tenant of an operational user
// whose token predates the owner claim.
type EmployeeOwnerResolver interface {
	FindEmployeeOwner(ctx context.Context, userID int) (*int, error)
}

// Requirements parameterizes the gate per endpoint.
type Requirements struct {
	Permission         string
	RequireEntitlement bool
	TenantScoped       bool
}

// Grant is the resolved caller handed to the domain handler once every
// check has passed.
type Grant struct {
	Identity identity.Identity
	OwnerID  int
	// ownerKnown is false only for non-tenant-scoped endpoints where the
	// tenant could not be resolved.
	ownerKnown bool
}

func (g Grant) Owner() (int, bool) {
	return g.OwnerID, g.ownerKnown
}

type Gate struct {
	perms        PermissionChecker
	entitlements EntitlementChecker
	owners       tenant.Repository
	employees    EmployeeOwnerResolver
}

func NewGate(
	perms PermissionChecker,
	entitlements EntitlementChecker,
	owners tenant.Repository,
	employees EmployeeOwnerResolver,
) *Gate {
	return &Gate{
		perms:        perms,
		entitlements: entitlements,
		owners:       owners,
		employees:    employees,
	}
}

// Authorize runs the fixed check order: authentication, permission,
// entitlement, tenant resolution. The per-resource ownership comparison
// happens in the handler via CheckOwnership once the target row is loaded.
func (g *Gate) Authorize(
	ctx context.Context,
	req Requirements,
) (*Grant, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, core.UnauthorizedError("")
	}

	// The commercial owner is the tenant root and holds every permission
	// over its own data; permission codes constrain operational users.
	if req.Permission != "" && !id.IsOwner() {
		allowed, err := g.perms.HasPermission(ctx, id.UserID, req.Permission)
		if err != nil {
			core.SetSpanError(ctx, err)
			return nil, fmt.Errorf("check permission: %w", err)
		}
		if !allowed {
			return nil, core.ForbiddenError("")
		}
	}

	if req.RequireEntitlement {
		if !g.entitled(ctx, id) {
			return nil, core.EntitlementRequiredError()
		}
	}

	grant := &Grant{Identity: id}
	grant.OwnerID, grant.ownerKnown = g.resolveOwner(ctx, id)

	if req.TenantScoped && !grant.ownerKnown {
		return nil, core.ForbiddenError("no tenant resolved for caller")
	}

	return grant, nil
}

// CheckOwnership compares a loaded resource's ownership against the
// caller's tenant. Unscoped legacy resources are visible to every tenant.
func (g *Gate) CheckOwnership(grant *Grant, owned tenant.Ownership) error {
	if owned.IsUnscoped() {
		return nil
	}
	if !grant.ownerKnown || !owned.AccessibleBy(grant.OwnerID) {
		return core.ForbiddenError("resource belongs to another tenant")
	}
	return nil
}

func (g *Gate) entitled(ctx context.Context, id identity.Identity) bool {
	if ownerID, ok := g.resolveOwner(ctx, id); ok {
		return g.entitlements.IsEntitledOwner(ctx, ownerID)
	}
	return g.entitlements.IsEntitledEmail(ctx, id.Email)
}

// resolveOwner determines the tenant the caller acts for: the token's
// owner claim, the caller itself for commercial owners, then the employee
// directory, then an owner-by-email fallback for legacy tokens.
func (g *Gate) resolveOwner(
	ctx context.Context,
	id identity.Identity,
) (int, bool) {
	if id.OwnerID != nil {
		return *id.OwnerID, true
	}

	if id.IsOwner() {
		return id.UserID, true
	}

	if ownerID, err := g.employees.FindEmployeeOwner(ctx, id.UserID); err == nil && ownerID != nil {
		return *ownerID, true
	}

	if id.Email != "" {
		if owner, err := g.owners.GetByEmail(ctx, id.Email); err == nil {
			return owner.ID, true
		}
	}

	return 0, false
}

type grantContextKey struct{}

// Require wraps a handler subtree with the gate, stashing the resulting
// grant for the handlers underneath.
func (g *Gate) Require(req Requirements) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grant, err := g.Authorize(r.Context(), req)
			if err != nil {
				if core.IsAppError(err) {
					core.AddSpanEvent(r.Context(), "authorization denied",
						attribute.String("permission", req.Permission),
					)
					core.JSONError(w, err)
					return
				}
				core.SetSpanError(r.Context(), err)
				core.InternalServerError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), grantContextKey{}, grant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GrantFromContext(ctx context.Context) (*Grant, bool) {
	grant, ok := ctx.Value(grantContextKey{}).(*Grant)
	return grant, ok
}
