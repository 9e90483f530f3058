// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
	"github.com/gestia-dev/gestia-backend/internal/user"
)

type fakeOwnerRepo struct {
	owners map[string]*tenant.Owner
	nextID int
}

func (f *fakeOwnerRepo) Create(_ context.Context, owner *tenant.Owner) error {
	if _, ok := f.owners[owner.Email]; ok {
		return fmt.Errorf("create owner: %w", core.ErrDuplicateKey)
	}
	f.nextID++
	owner.ID = f.nextID
	f.owners[owner.Email] = owner
	return nil
}

func (f *fakeOwnerRepo) GetByID(_ context.Context, id int) (*tenant.Owner, error) {
	for _, o := range f.owners {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
}

func (f *fakeOwnerRepo) GetByEmail(
	_ context.Context,
	email string,
) (*tenant.Owner, error) {
	if o, ok := f.owners[email]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
}

func (f *fakeOwnerRepo) ExistsByEmail(
	_ context.Context,
	email string,
) (bool, error) {
	_, ok := f.owners[email]
	return ok, nil
}

func (f *fakeOwnerRepo) UpdatePasswordHash(
	_ context.Context,
	id int,
	hash string,
) error {
	for _, o := range f.owners {
		if o.ID == id {
			o.PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("update password: %w", core.ErrNotFound)
}

func (f *fakeOwnerRepo) EndExpiredTrial(
	_ context.Context,
	_ int,
	_ time.Time,
) error {
	return nil
}

type fakeUserRepo struct {
	users map[string]*user.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeUserRepo) GetByEmail(
	_ context.Context,
	email string,
) (*user.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (f *fakeUserRepo) Update(_ context.Context, _ *user.User) error {
	return nil
}

func (f *fakeUserRepo) Deactivate(_ context.Context, _ int) error {
	return nil
}

func (f *fakeUserRepo) ListByOwner(
	_ context.Context,
	_ int,
) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(
	_ context.Context,
	id int,
	hash string,
) error {
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("update password: %w", core.ErrNotFound)
}

func testAuthService(t *testing.T) (*Service, *fakeOwnerRepo, *fakeUserRepo) {
	t.Helper()

	owners := &fakeOwnerRepo{owners: map[string]*tenant.Owner{}}
	users := &fakeUserRepo{users: map[string]*user.User{}}
	svc := NewService(testTokenService(t), owners, users)
	return svc, owners, users
}

func seedUser(
	t *testing.T,
	users *fakeUserRepo,
	id int,
	email, password string,
	role identity.Role,
	ownerID *int,
) {
	t.Helper()

	hash, err := core.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users.users[email] = &user.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		OwnerID:      ownerID,
		Active:       true,
	}
}

func TestRegisterStartsTrial(t *testing.T) {
	svc, owners, _ := testAuthService(t)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Owner@Example.com",
		Password: "sup3r-secret",
		Name:     "Owner",
		Company:  "Acme SRL",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	owner, ok := owners.owners["owner@example.com"]
	if !ok {
		t.Fatalf("email must be stored lowercased")
	}
	if !owner.InTrial || owner.TrialEndsAt == nil {
		t.Fatalf("registration must start a trial")
	}

	if resp.User.InTrial == nil || !*resp.User.InTrial {
		t.Fatalf("response should report the trial")
	}
	if resp.User.Role != nil {
		t.Fatalf("owner account has no role")
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("registration must issue a token pair")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := testAuthService(t)
	ctx := context.Background()

	req := RegisterRequest{
		Email:    "owner@example.com",
		Password: "sup3r-secret",
		Name:     "Owner",
		Company:  "Acme SRL",
	}

	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Register(ctx, req)
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLoginOwnerBeforeUser(t *testing.T) {
	svc, _, users := testAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email:    "shared@example.com",
		Password: "owner-password",
		Name:     "Owner",
		Company:  "Acme SRL",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// A user row with the same email must lose against the owner match.
	ownerID := 1
	seedUser(t, users, 50, "shared@example.com", "user-password",
		identity.RoleOperator, &ownerID)

	resp, err := svc.Login(ctx, LoginRequest{
		Email:    "shared@example.com",
		Password: "owner-password",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.User.Role != nil {
		t.Fatalf("expected the owner account, got role %v", *resp.User.Role)
	}
}

func TestLoginOperationalUser(t *testing.T) {
	svc, _, users := testAuthService(t)
	ctx := context.Background()

	ownerID := 9
	seedUser(t, users, 50, "worker@example.com", "user-password",
		identity.RoleCashier, &ownerID)

	resp, err := svc.Login(ctx, LoginRequest{
		Email:    "worker@example.com",
		Password: "user-password",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if resp.User.Role == nil || *resp.User.Role != identity.RoleCashier.String() {
		t.Fatalf("unexpected role: %v", resp.User.Role)
	}
	if resp.User.OwnerID == nil || *resp.User.OwnerID != 9 {
		t.Fatalf("unexpected owner: %v", resp.User.OwnerID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, users := testAuthService(t)
	ctx := context.Background()

	seedUser(t, users, 50, "worker@example.com", "user-password",
		identity.RoleCashier, nil)

	_, err := svc.Login(ctx, LoginRequest{
		Email:    "worker@example.com",
		Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// legacyHash encodes a password with weaker argon2id parameters than the
// current defaults, the shape of rows hashed before a parameter bump.
func legacyHash(password string) string {
	salt := []byte("0123456789abcdef")
	hash := argon2.IDKey([]byte(password), salt, 2, 32*1024, 2, 32)
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		32*1024,
		2,
		2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

func TestLoginRehashesLegacyPassword(t *testing.T) {
	svc, owners, _ := testAuthService(t)

	stale := legacyHash("hunter2hunter2")
	owners.owners["legacy@shop.com"] = &tenant.Owner{
		ID:           8,
		Email:        "legacy@shop.com",
		PasswordHash: stale,
		Active:       true,
	}

	if _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "legacy@shop.com",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	upgraded := owners.owners["legacy@shop.com"].PasswordHash
	if upgraded == stale {
		t.Fatalf("stale hash was not upgraded on login")
	}

	// The upgraded hash must verify and stay put on the next login.
	if _, err := svc.Login(context.Background(), LoginRequest{
		Email:    "legacy@shop.com",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if owners.owners["legacy@shop.com"].PasswordHash != upgraded {
		t.Fatalf("current-parameter hash should not be rewritten")
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	svc, _, _ := testAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:    "owner@example.com",
		Password: "sup3r-secret",
		Name:     "Owner",
		Company:  "Acme SRL",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tokens, err := svc.Refresh(ctx, reg.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	claims, err := svc.tokens.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Type != identity.TokenTypeAccess {
		t.Fatalf("refresh must mint an access token, got %s", claims.Type)
	}
	if claims.UserID != reg.User.ID {
		t.Fatalf("unexpected subject: %d", claims.UserID)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := testAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:    "owner@example.com",
		Password: "sup3r-secret",
		Name:     "Owner",
		Company:  "Acme SRL",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = svc.Refresh(ctx, reg.Tokens.AccessToken)
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("access token must not refresh, got %v", err)
	}
}
