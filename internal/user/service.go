// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/gestia-dev/gestia-backend/internal/authz"
	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/entitlement"
	"github.com/gestia-dev/gestia-backend/internal/identity"
	"github.com/gestia-dev/gestia-backend/internal/permission"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create provisions an operational user under the given tenant. The owner
// id comes from the acting identity, never from the request body.
func (s *Service) Create(
	ctx context.Context,
	req CreateUserRequest,
	ownerID int,
) (*User, error) {
	role, err := identity.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", core.ErrInvalidInput)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         role,
		OwnerID:      &ownerID,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id int) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(
	ctx context.Context,
	id int,
	req UpdateUserRequest,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}

	if req.Role != nil {
		role, parseErr := identity.ParseRole(*req.Role)
		if parseErr != nil {
			return nil, fmt.Errorf("update user: %w", core.ErrInvalidInput)
		}
		u.Role = role
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) Deactivate(ctx context.Context, id int) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int) ([]User, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) FindSubject(
	ctx context.Context,
	id int,
) (*permission.Subject, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &permission.Subject{ID: u.ID, Role: u.Role}, nil
}

func (s *Service) FindEmployee(
	ctx context.Context,
	email string,
) (*entitlement.Employee, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return &entitlement.Employee{OwnerID: u.OwnerID}, nil
}

func (s *Service) FindEmployeeOwner(
	ctx context.Context,
	userID int,
) (*int, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return u.OwnerID, nil
}

var (
	_ permission.SubjectProvider    = (*Service)(nil)
	_ entitlement.EmployeeDirectory = (*Service)(nil)
	_ authz.EmployeeOwnerResolver   = (*Service)(nil)
)
