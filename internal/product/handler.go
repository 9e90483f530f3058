// AngelaMos | 2026
// handler.go

package product

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
)

type Handler struct {
	service   *Service
	gate      *authz.Gate
	validator *validator.Validate
}

func NewHandler(service *Service, gate *authz.Gate) *Handler {
	return &Handler{
		service:   service,
		gate:      gate,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		h.mount(r, permission.CodeProductsView, func(r chi.Router) {
			r.Get("/", h.List)
			r.Get("/{productID}", h.Get)
		})
		h.mount(r, permission.CodeProductsCreate, func(r chi.Router) {
			r.Post("/", h.Create)
		})
		h.mount(r, permission.CodeProductsUpdate, func(r chi.Router) {
			r.Put("/{productID}", h.Update)
		})
		h.mount(r, permission.CodeProductsDelete, func(r chi.Router) {
			r.Delete("/{productID}", h.Deactivate)
		})
	})
}

func (h *Handler) mount(r chi.Router, code string, routes func(chi.Router)) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Require(authz.Requirements{
			Permission:         code,
			RequireEntitlement: true,
			TenantScoped:       true,
		}))
		routes(r)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	products, err := h.service.ListForOwner(r.Context(), grant.OwnerID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProductListResponse(products))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	core.OK(w, ToProductResponse(target))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Create(r.Context(), req, grant.OwnerID)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("barcode"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToProductResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.Update(r.Context(), target, req); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("barcode"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProductResponse(target))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	_, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), target.ID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

// loadTarget parses the path id, loads the product and verifies the
// caller's tenant may touch it. Rows without an owner pass for everyone.
func (h *Handler) loadTarget(
	w http.ResponseWriter,
	r *http.Request,
) (*authz.Grant, *Product, bool) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return nil, nil, false
	}

	id, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		core.BadRequest(w, "invalid product id")
		return nil, nil, false
	}

	target, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "product")
			return nil, nil, false
		}
		core.InternalServerError(w, err)
		return nil, nil, false
	}

	if err := h.gate.CheckOwnership(grant, target.Ownership()); err != nil {
		core.JSONError(w, err)
		return nil, nil, false
	}

	return grant, target, true
}
