// AngelaMos | 2026
// gate_test.go

package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
)

type fakePerms map[int]map[string]bool

func (f fakePerms) HasPermission(
	_ context.Context,
	userID int,
	code string,
) (bool, error) {
	return f[userID][code], nil
}

type fakeEntitlements struct {
	owners map[int]bool
	emails map[string]bool
}

func (f *fakeEntitlements) IsEntitledOwner(_ context.Context, ownerID int) bool {
	return f.owners[ownerID]
}

func (f *fakeEntitlements) IsEntitledEmail(_ context.Context, email string) bool {
	return f.emails[email]
}

type fakeOwnerRepo map[string]*tenant.Owner

func (f fakeOwnerRepo) Create(_ context.Context, _ *tenant.Owner) error {
	return errors.New("not implemented")
}

func (f fakeOwnerRepo) GetByID(_ context.Context, id int) (*tenant.Owner, error) {
	for _, o := range f {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
}

func (f fakeOwnerRepo) GetByEmail(
	_ context.Context,
	email string,
) (*tenant.Owner, error) {
	if o, ok := f[email]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
}

func (f fakeOwnerRepo) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	_, ok := f[email]
	return ok, nil
}

func (f fakeOwnerRepo) UpdatePasswordHash(_ context.Context, _ int, _ string) error {
	return errors.New("not implemented")
}

func (f fakeOwnerRepo) EndExpiredTrial(_ context.Context, _ int, _ time.Time) error {
	return errors.New("not implemented")
}

type fakeResolver map[int]*int

func (f fakeResolver) FindEmployeeOwner(
	_ context.Context,
	userID int,
) (*int, error) {
	if ownerID, ok := f[userID]; ok {
		return ownerID, nil
	}
	return nil, fmt.Errorf("find employee: %w", core.ErrNotFound)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *core.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	return appErr.StatusCode
}

func employeeIdentity(userID, ownerID int) identity.Identity {
	role := identity.RoleOperator
	return identity.Identity{
		UserID:  userID,
		Email:   fmt.Sprintf("user%d@example.com", userID),
		Role:    &role,
		OwnerID: &ownerID,
	}
}

func testGate() *Gate {
	ownerID := 3
	return NewGate(
		fakePerms{7: {"PRODUCTS_VIEW": true}},
		&fakeEntitlements{
			owners: map[int]bool{3: true},
			emails: map[string]bool{},
		},
		fakeOwnerRepo{},
		fakeResolver{7: &ownerID},
	)
}

func TestAuthorizeAnonymous(t *testing.T) {
	gate := testGate()

	_, err := gate.Authorize(context.Background(), Requirements{})
	if got := statusOf(t, err); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestAuthorizeCheckOrder(t *testing.T) {
	// User 8 lacks the permission and the tenant is not entitled; the
	// permission failure must win.
	ownerID := 99
	gate := NewGate(
		fakePerms{},
		&fakeEntitlements{owners: map[int]bool{}, emails: map[string]bool{}},
		fakeOwnerRepo{},
		fakeResolver{},
	)

	ctx := identity.NewContext(
		context.Background(),
		employeeIdentity(8, ownerID),
	)

	_, err := gate.Authorize(ctx, Requirements{
		Permission:         "PRODUCTS_VIEW",
		RequireEntitlement: true,
		TenantScoped:       true,
	})
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Fatalf("permission check must run before entitlement, got %d", got)
	}
}

func TestAuthorizeEntitlementRequired(t *testing.T) {
	ownerID := 99 // not entitled
	gate := NewGate(
		fakePerms{7: {"PRODUCTS_VIEW": true}},
		&fakeEntitlements{owners: map[int]bool{}, emails: map[string]bool{}},
		fakeOwnerRepo{},
		fakeResolver{},
	)

	ctx := identity.NewContext(
		context.Background(),
		employeeIdentity(7, ownerID),
	)

	_, err := gate.Authorize(ctx, Requirements{
		Permission:         "PRODUCTS_VIEW",
		RequireEntitlement: true,
	})
	if got := statusOf(t, err); got != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", got)
	}
}

func TestAuthorizeSuccess(t *testing.T) {
	gate := testGate()

	ctx := identity.NewContext(context.Background(), employeeIdentity(7, 3))

	grant, err := gate.Authorize(ctx, Requirements{
		Permission:         "PRODUCTS_VIEW",
		RequireEntitlement: true,
		TenantScoped:       true,
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	ownerID, ok := grant.Owner()
	if !ok || ownerID != 3 {
		t.Fatalf("expected owner 3, got %d (known=%v)", ownerID, ok)
	}
}

func TestAuthorizeOwnerHoldsEveryPermission(t *testing.T) {
	// Owner accounts have no role and no permission rows. A freshly
	// registered owner must still pass permission-gated endpoints, or it
	// could never provision its first operational user.
	gate := NewGate(
		fakePerms{},
		&fakeEntitlements{owners: map[int]bool{4: true}, emails: map[string]bool{}},
		fakeOwnerRepo{},
		fakeResolver{},
	)

	ctx := identity.NewContext(context.Background(), identity.Identity{
		UserID: 4,
		Email:  "owner@example.com",
	})

	grant, err := gate.Authorize(ctx, Requirements{
		Permission:         "USERS_CREATE",
		RequireEntitlement: true,
		TenantScoped:       true,
	})
	if err != nil {
		t.Fatalf("owner denied: %v", err)
	}

	ownerID, ok := grant.Owner()
	if !ok || ownerID != 4 {
		t.Fatalf("expected owner 4, got %d (known=%v)", ownerID, ok)
	}
}

func TestResolveOwnerChain(t *testing.T) {
	ownerID := 3
	gate := NewGate(
		fakePerms{},
		&fakeEntitlements{owners: map[int]bool{}, emails: map[string]bool{}},
		fakeOwnerRepo{
			"legacy@example.com": {ID: 5, Email: "legacy@example.com"},
		},
		fakeResolver{7: &ownerID},
	)
	ctx := context.Background()

	// Claim wins when present.
	got, ok := gate.resolveOwner(ctx, employeeIdentity(7, 12))
	if !ok || got != 12 {
		t.Fatalf("claim should win, got %d", got)
	}

	// Owner identities resolve to themselves.
	got, ok = gate.resolveOwner(ctx, identity.Identity{UserID: 4})
	if !ok || got != 4 {
		t.Fatalf("owner should resolve to itself, got %d", got)
	}

	// Employees without a claim fall back to the directory.
	role := identity.RoleCashier
	got, ok = gate.resolveOwner(ctx, identity.Identity{UserID: 7, Role: &role})
	if !ok || got != 3 {
		t.Fatalf("directory fallback failed, got %d", got)
	}

	// Last resort: match an owner account by email.
	got, ok = gate.resolveOwner(ctx, identity.Identity{
		UserID: 99,
		Email:  "legacy@example.com",
		Role:   &role,
	})
	if !ok || got != 5 {
		t.Fatalf("email fallback failed, got %d", got)
	}

	// Nothing resolves.
	_, ok = gate.resolveOwner(ctx, identity.Identity{
		UserID: 99,
		Email:  "stranger@example.com",
		Role:   &role,
	})
	if ok {
		t.Fatalf("expected unresolved tenant")
	}
}

func TestTenantScopedRequiresResolvedOwner(t *testing.T) {
	gate := NewGate(
		fakePerms{},
		&fakeEntitlements{owners: map[int]bool{}, emails: map[string]bool{}},
		fakeOwnerRepo{},
		fakeResolver{},
	)

	role := identity.RoleOperator
	ctx := identity.NewContext(context.Background(), identity.Identity{
		UserID: 42,
		Role:   &role,
	})

	_, err := gate.Authorize(ctx, Requirements{TenantScoped: true})
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestCheckOwnership(t *testing.T) {
	gate := testGate()
	grant := &Grant{OwnerID: 3, ownerKnown: true}

	if err := gate.CheckOwnership(grant, tenant.OwnedBy(3)); err != nil {
		t.Fatalf("own resource rejected: %v", err)
	}

	err := gate.CheckOwnership(grant, tenant.OwnedBy(4))
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Fatalf("cross-tenant access must 403, got %d", got)
	}

	if err := gate.CheckOwnership(grant, tenant.Unscoped()); err != nil {
		t.Fatalf("unscoped resource rejected: %v", err)
	}
}
