// AngelaMos | 2026
// auth.go

package middleware

import (
	"net/http"
	"strings"

	"github.com/gestia-dev/gestia-backend/internal/auth"
	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// IdentityExtractor resolves the bearer token into a request-scoped
// identity. Extraction never rejects: a missing, malformed or non-access
// token leaves the request anonymous, and the authorization gate decides
// whether anonymous is acceptable for the endpoint. This keeps public and
// protected routes on the same extraction path.
func IdentityExtractor(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// Refresh tokens verify but never authenticate a request.
			if claims.Type != identity.TokenTypeAccess {
				next.ServeHTTP(w, r)
				return
			}

			ctx := identity.NewContext(r.Context(), identity.Identity{
				UserID:  claims.UserID,
				Email:   claims.Email,
				Role:    claims.Role,
				OwnerID: claims.OwnerID,
				Company: claims.Company,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdministrator admits commercial owners and administrator users
// only. Everything else gets 401 or 403 without reaching the handler.
func RequireAdministrator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.FromContext(r.Context())
		if !ok {
			core.Unauthorized(w, "")
			return
		}

		if !id.IsOwner() && !id.IsAdministrator() {
			core.Forbidden(w, "administrator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
