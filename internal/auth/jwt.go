// AngelaMos | 2026
// jwt.go

package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/gestia-dev/gestia-backend/internal/config"
	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
)

// Wire claim names are the contract with existing API clients and must not
// change.
const (
	claimType    = "type"
	claimEmail   = "email"
	claimRole    = "rol"
	claimOwnerID = "usuario_comercial_id"
	claimCompany = "nombre_empresa"
)

type TokenService struct {
	key    jwk.Key
	config config.JWTConfig
}

func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	if setErr := key.Set(jwk.AlgorithmKey, jwa.HS256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	return &TokenService{key: key, config: cfg}, nil
}

type AccessTokenInput struct {
	UserID  int
	Email   string
	Role    *identity.Role
	OwnerID *int
	Company string
}

func (s *TokenService) IssueAccessToken(in AccessTokenInput) (string, error) {
	now := time.Now()

	builder := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(s.config.Issuer).
		Subject(strconv.Itoa(in.UserID)).
		IssuedAt(now).
		Expiration(now.Add(s.config.AccessTokenExpire)).
		Claim(claimType, string(identity.TokenTypeAccess)).
		Claim(claimEmail, in.Email)

	// Optional claims are omitted entirely, not written as null.
	if in.Role != nil {
		builder = builder.Claim(claimRole, in.Role.String())
	}
	if in.OwnerID != nil {
		builder = builder.Claim(claimOwnerID, *in.OwnerID)
	}
	if in.Company != "" {
		builder = builder.Claim(claimCompany, in.Company)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build access token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return string(signed), nil
}

func (s *TokenService) IssueRefreshToken(userID int) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(s.config.Issuer).
		Subject(strconv.Itoa(userID)).
		IssuedAt(now).
		Expiration(now.Add(s.config.RefreshTokenExpire)).
		Claim(claimType, string(identity.TokenTypeRefresh)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build refresh token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.key))
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return string(signed), nil
}

type Claims struct {
	UserID    int
	Email     string
	Type      identity.TokenType
	Role      *identity.Role
	OwnerID   *int
	Company   string
	ExpiresAt time.Time
}

// Verify checks signature, issuer and expiry. Every failure collapses into
// core.ErrTokenInvalid so callers cannot probe which check failed.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.config.Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	userID, err := strconv.Atoi(subject)
	if err != nil {
		return nil, fmt.Errorf(
			"verify token: bad subject: %w",
			core.ErrTokenInvalid,
		)
	}

	var typeStr string
	if err := token.Get(claimType, &typeStr); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing type: %w",
			core.ErrTokenInvalid,
		)
	}

	tokenType, err := identity.ParseTokenType(typeStr)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	claims := &Claims{
		UserID: userID,
		Type:   tokenType,
	}

	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	var email string
	if err := token.Get(claimEmail, &email); err == nil {
		claims.Email = email
	}

	var roleStr string
	if err := token.Get(claimRole, &roleStr); err == nil {
		role, parseErr := identity.ParseRole(roleStr)
		if parseErr != nil {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		claims.Role = &role
	}

	// Numeric claims round-trip through JSON as float64.
	var ownerID float64
	if err := token.Get(claimOwnerID, &ownerID); err == nil {
		id := int(ownerID)
		claims.OwnerID = &id
	}

	var company string
	if err := token.Get(claimCompany, &company); err == nil {
		claims.Company = company
	}

	return claims, nil
}
