// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gestia-dev/gestia-backend/internal/auth"
	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/identity"
)

type stubVerifier struct {
	claims map[string]*auth.Claims
}

func (s *stubVerifier) Verify(token string) (*auth.Claims, error) {
	if c, ok := s.claims[token]; ok {
		return c, nil
	}
	return nil, core.ErrTokenInvalid
}

func identityProbe(got **identity.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := identity.FromContext(r.Context()); ok {
			*got = &id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentityExtractorThreadsIdentity(t *testing.T) {
	role := identity.RoleCashier
	ownerID := 4
	verifier := &stubVerifier{claims: map[string]*auth.Claims{
		"good": {
			UserID:  9,
			Email:   "cashier@example.com",
			Type:    identity.TokenTypeAccess,
			Role:    &role,
			OwnerID: &ownerID,
		},
	}}

	var got *identity.Identity
	handler := IdentityExtractor(verifier)(identityProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatalf("expected identity in context")
	}
	if got.UserID != 9 || got.Email != "cashier@example.com" {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.Role == nil || *got.Role != identity.RoleCashier {
		t.Fatalf("unexpected role: %v", got.Role)
	}
	if got.OwnerID == nil || *got.OwnerID != 4 {
		t.Fatalf("unexpected owner: %v", got.OwnerID)
	}
}

func TestIdentityExtractorAnonymousPaths(t *testing.T) {
	verifier := &stubVerifier{claims: map[string]*auth.Claims{
		"refresh": {UserID: 9, Type: identity.TokenTypeRefresh},
	}}

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"invalid token", "Bearer junk"},
		{"refresh token", "Bearer refresh"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got *identity.Identity
			handler := IdentityExtractor(verifier)(identityProbe(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("extraction must never reject, got %d", rec.Code)
			}
			if got != nil {
				t.Fatalf("expected anonymous request, got %+v", got)
			}
		})
	}
}

func TestRequireAdministrator(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdministrator(next)

	run := func(ctxIdentity *identity.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if ctxIdentity != nil {
			req = req.WithContext(
				identity.NewContext(req.Context(), *ctxIdentity),
			)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := run(nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}

	cashier := identity.RoleCashier
	if code := run(&identity.Identity{UserID: 1, Role: &cashier}); code != http.StatusForbidden {
		t.Fatalf("cashier: expected 403, got %d", code)
	}

	adminRole := identity.RoleAdministrator
	if code := run(&identity.Identity{UserID: 1, Role: &adminRole}); code != http.StatusOK {
		t.Fatalf("administrator: expected 200, got %d", code)
	}

	if code := run(&identity.Identity{UserID: 2}); code != http.StatusOK {
		t.Fatalf("owner: expected 200, got %d", code)
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if tok := ExtractToken(req); tok != "" {
		t.Fatalf("expected empty token, got %q", tok)
	}

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	if tok := ExtractToken(req); tok != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", tok)
	}

	req.Header.Set("Authorization", "bearer lowercase")
	if tok := ExtractToken(req); tok != "lowercase" {
		t.Fatalf("scheme match must be case insensitive, got %q", tok)
	}
}
