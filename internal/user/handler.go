// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestia-dev/gestia-backend/internal/authz"
	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/permission"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
)

type Handler struct {
	service   *Service
	perms     *permission.Service
	gate      *authz.Gate
	validator *validator.Validate
}

func NewHandler(
	service *Service,
	perms *permission.Service,
	gate *authz.Gate,
) *Handler {
	return &Handler{
		service:   service,
		perms:     perms,
		gate:      gate,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.gate.Require(authz.Requirements{
				Permission:         permission.CodeUsersCreate,
				RequireEntitlement: true,
				TenantScoped:       true,
			}))
			r.Post("/", h.Create)
			r.Get("/", h.List)
			r.Put("/{userID}", h.Update)
			r.Delete("/{userID}", h.Deactivate)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.gate.Require(authz.Requirements{
				Permission:         permission.CodeUsersManage,
				RequireEntitlement: true,
				TenantScoped:       true,
			}))
			r.Get("/{userID}/permissions", h.ListPermissions)
			r.Post("/{userID}/permissions", h.GrantPermission)
			r.Delete("/{userID}/permissions/{code}", h.RevokePermission)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Create(r.Context(), req, grant.OwnerID)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("email"))
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToUserResponse(u))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	users, err := h.service.ListByOwner(r.Context(), grant.OwnerID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, UserListResponse{Users: ToUserResponseList(users)})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	u, err := h.service.Update(r.Context(), target.ID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), target.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	codes, err := h.perms.ListEffective(r.Context(), target.ID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, PermissionsResponse{Codes: codes})
}

func (h *Handler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	grant, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	var req GrantPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	granted, err := h.perms.Grant(
		r.Context(),
		target.ID,
		req.Code,
		grant.Identity.UserID,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if !granted {
		core.NotFound(w, "permission")
		return
	}

	core.NoContent(w)
}

func (h *Handler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		core.BadRequest(w, "permission code required")
		return
	}

	revoked, err := h.perms.Revoke(r.Context(), target.ID, code)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "permission")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if !revoked {
		core.JSONError(w, core.ConflictError(
			"permission is part of the role baseline or cannot be revoked",
		))
		return
	}

	core.NoContent(w)
}

// loadTarget parses the path id, loads the target user and verifies it
// belongs to the caller's tenant.
func (h *Handler) loadTarget(
	w http.ResponseWriter,
	r *http.Request,
) (*authz.Grant, *User, bool) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return nil, nil, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		core.BadRequest(w, "invalid user id")
		return nil, nil, false
	}

	target, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return nil, nil, false
		}
		core.InternalServerError(w, err)
		return nil, nil, false
	}

	if err := h.gate.CheckOwnership(grant, tenant.FromNullable(target.OwnerID)); err != nil {
		core.JSONError(w, err)
		return nil, nil, false
	}

	return grant, target, true
}
