// AngelaMos | 2026
// service.go

package permission

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
)

// Subject is the slice of an operational user the engine needs.
type Subject struct {
	ID   int
	Role identity.Role
}

type SubjectProvider interface {
	FindSubject(ctx context.Context, id int) (*Subject, error)
}

type Service struct {
	repo     Repository
	subjects SubjectProvider
}

func NewService(repo Repository, subjects SubjectProvider) *Service {
	return &Service{repo: repo, subjects: subjects}
}

// HasPermission resolves role baseline plus per-user overrides.
// Administrators hold every permission unconditionally, including codes
// that do not exist in the permission table.
func (s *Service) HasPermission(
	ctx context.Context,
	userID int,
	code string,
) (bool, error) {
	subject, err := s.subjects.FindSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve subject: %w", err)
	}

	if subject.Role == identity.RoleAdministrator {
		return true, nil
	}

	perm, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if !perm.Active {
		return false, nil
	}

	byRole, err := s.repo.RoleHasPermission(ctx, subject.Role, perm.ID)
	if err != nil {
		return false, err
	}
	if byRole {
		return true, nil
	}

	return s.repo.HasOverride(ctx, userID, perm.ID)
}

// Grant adds an additive override. It is idempotent: granting a permission
// the user already holds (by role or prior override) succeeds without
// writing a second row. Granting to an administrator is a no-op success.
func (s *Service) Grant(
	ctx context.Context,
	userID int,
	code string,
	grantedBy int,
) (bool, error) {
	perm, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	subject, err := s.subjects.FindSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve subject: %w", err)
	}

	if subject.Role == identity.RoleAdministrator {
		return true, nil
	}

	byRole, err := s.repo.RoleHasPermission(ctx, subject.Role, perm.ID)
	if err != nil {
		return false, err
	}
	if byRole {
		return true, nil
	}

	if err := s.repo.InsertOverride(ctx, userID, perm.ID, grantedBy); err != nil {
		return false, err
	}

	return true, nil
}

// Revoke removes a prior override. Role-baseline permissions are not
// revocable through the override mechanism, and administrators are never
// revocable. An unknown code reports core.ErrNotFound so callers can
// distinguish it from a non-revocable permission.
func (s *Service) Revoke(
	ctx context.Context,
	userID int,
	code string,
) (bool, error) {
	perm, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, fmt.Errorf("revoke permission: %w", core.ErrNotFound)
		}
		return false, err
	}

	subject, err := s.subjects.FindSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve subject: %w", err)
	}

	if subject.Role == identity.RoleAdministrator {
		return false, nil
	}

	byRole, err := s.repo.RoleHasPermission(ctx, subject.Role, perm.ID)
	if err != nil {
		return false, err
	}
	if byRole {
		return false, nil
	}

	if err := s.repo.DeleteOverride(ctx, userID, perm.ID); err != nil {
		return false, err
	}

	return true, nil
}

// ListEffective returns the deduplicated union of role-baseline and
// override codes; administrators get every active code.
func (s *Service) ListEffective(
	ctx context.Context,
	userID int,
) ([]string, error) {
	subject, err := s.subjects.FindSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	if subject.Role == identity.RoleAdministrator {
		return s.repo.ActiveCodes(ctx)
	}

	roleCodes, err := s.repo.CodesForRole(ctx, subject.Role)
	if err != nil {
		return nil, err
	}

	overrideCodes, err := s.repo.OverrideCodes(ctx, userID)
	if err != nil {
		return nil, err
	}

	codes := append([]string{}, roleCodes...)
	for _, code := range overrideCodes {
		if !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}

	slices.Sort(codes)
	return codes, nil
}
