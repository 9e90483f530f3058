// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
	"github.com/gestia-dev/gestia-backend/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

// TrialDuration is how long a newly registered commercial account can use
// the product before a subscription is required.
const TrialDuration = 14 * 24 * time.Hour

type Service struct {
	tokens *TokenService
	owners tenant.Repository
	users  user.Repository
	now    func() time.Time
}

func NewService(
	tokens *TokenService,
	owners tenant.Repository,
	users user.Repository,
) *Service {
	return &Service{
		tokens: tokens,
		owners: owners,
		users:  users,
		now:    time.Now,
	}
}

// Login authenticates either account kind behind a single endpoint.
// Commercial owners are matched first; if the email is not an owner, the
// operational user directory is tried next.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	email := strings.ToLower(req.Email)

	owner, err := s.owners.GetByEmail(ctx, email)
	if err == nil {
		return s.loginOwner(ctx, owner, req.Password)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.loginUser(ctx, u, req.Password)
}

func (s *Service) loginOwner(
	ctx context.Context,
	owner *tenant.Owner,
	password string,
) (*AuthResponse, error) {
	valid, newHash, err := core.VerifyPasswordTimingSafe(
		password,
		&owner.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	// The stored hash uses stale parameters; refresh it while the
	// plaintext is at hand.
	if newHash != "" {
		if err := s.owners.UpdatePasswordHash(ctx, owner.ID, newHash); err != nil {
			slog.Warn("password rehash failed", "owner_id", owner.ID, "error", err)
		}
	}

	tokens, err := s.issueTokens(AccessTokenInput{
		UserID:  owner.ID,
		Email:   owner.Email,
		Company: owner.Company,
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:   ownerAccount(owner),
		Tokens: *tokens,
	}, nil
}

func (s *Service) loginUser(
	ctx context.Context,
	u *user.User,
	password string,
) (*AuthResponse, error) {
	valid, newHash, err := core.VerifyPasswordTimingSafe(password, &u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.users.UpdatePasswordHash(ctx, u.ID, newHash); err != nil {
			slog.Warn("password rehash failed", "user_id", u.ID, "error", err)
		}
	}

	tokens, err := s.issueTokens(AccessTokenInput{
		UserID:  u.ID,
		Email:   u.Email,
		Role:    &u.Role,
		OwnerID: u.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:   userAccount(u),
		Tokens: *tokens,
	}, nil
}

// Register creates a commercial owner account and starts its trial.
// Operational users are created later by the owner through user management.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	trialEnd := s.now().Add(TrialDuration)
	owner := &tenant.Owner{
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		Name:         req.Name,
		Company:      req.Company,
		InTrial:      true,
		TrialEndsAt:  &trialEnd,
		Active:       true,
	}

	if err := s.owners.Create(ctx, owner); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}

	tokens, err := s.issueTokens(AccessTokenInput{
		UserID:  owner.ID,
		Email:   owner.Email,
		Company: owner.Company,
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:   ownerAccount(owner),
		Tokens: *tokens,
	}, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The
// principal is reloaded so deactivated accounts stop refreshing even
// before their refresh token expires.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*TokenResponse, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Type != identity.TokenTypeRefresh {
		return nil, fmt.Errorf("refresh: wrong token type: %w", core.ErrTokenInvalid)
	}

	owner, err := s.owners.GetByID(ctx, claims.UserID)
	if err == nil {
		return s.issueTokens(AccessTokenInput{
			UserID:  owner.ID,
			Email:   owner.Email,
			Company: owner.Company,
		})
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: unknown principal: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueTokens(AccessTokenInput{
		UserID:  u.ID,
		Email:   u.Email,
		Role:    &u.Role,
		OwnerID: u.OwnerID,
	})
}

// CurrentAccount resolves the authenticated identity back to its full
// profile.
func (s *Service) CurrentAccount(
	ctx context.Context,
	ident identity.Identity,
) (*AccountResponse, error) {
	if ident.IsOwner() {
		owner, err := s.owners.GetByID(ctx, ident.UserID)
		if err != nil {
			return nil, fmt.Errorf("get owner: %w", err)
		}
		resp := ownerAccount(owner)
		return &resp, nil
	}

	u, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	resp := userAccount(u)
	return &resp, nil
}

func (s *Service) issueTokens(in AccessTokenInput) (*TokenResponse, error) {
	accessToken, err := s.tokens.IssueAccessToken(in)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(in.UserID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.tokens.config.AccessTokenExpire)

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.config.AccessTokenExpire.Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

func ownerAccount(owner *tenant.Owner) AccountResponse {
	inTrial := owner.InTrial
	return AccountResponse{
		ID:          owner.ID,
		Email:       owner.Email,
		Name:        owner.Name,
		Company:     owner.Company,
		InTrial:     &inTrial,
		TrialEndsAt: owner.TrialEndsAt,
	}
}

func userAccount(u *user.User) AccountResponse {
	role := u.Role.String()
	return AccountResponse{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Role:    &role,
		OwnerID: u.OwnerID,
	}
}
