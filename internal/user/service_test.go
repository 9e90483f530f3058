// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gestia-dev/gestia-backend/internal/core"
)

type fakeRepo struct {
	users  map[int]*User
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[int]*User{}, nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	u.ID = f.nextID
	u.Active = true
	f.nextID++
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int) (*User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) Deactivate(_ context.Context, id int) error {
	if u, ok := f.users[id]; ok {
		u.Active = false
		return nil
	}
	return fmt.Errorf("deactivate user: %w", core.ErrNotFound)
}

func (f *fakeRepo) ListByOwner(_ context.Context, ownerID int) ([]User, error) {
	var out []User
	for _, u := range f.users {
		if u.OwnerID != nil && *u.OwnerID == ownerID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = hash
		return nil
	}
	return fmt.Errorf("update password: %w", core.ErrNotFound)
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc := NewService(newFakeRepo())

	u, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Clerk@Example.COM",
		Password: "s3cret-enough",
		Name:     "Clerk",
		Role:     "CASHIER",
	}, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The stored row is lowercased, so the returned entity must match it.
	if u.Email != "clerk@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.OwnerID == nil || *u.OwnerID != 3 {
		t.Fatalf("owner not stamped: %v", u.OwnerID)
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "clerk@example.com",
		Password: "s3cret-enough",
		Name:     "Clerk",
		Role:     "SUPERUSER",
	}, 3)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
