// AngelaMos | 2026
// handler.go

package entitlement

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gestia-dev/gestia-backend/internal/authz"
	"github.com/gestia-dev/gestia-backend/internal/core"
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

// RegisterRoutes mounts the subscription endpoints. They require a resolved
// tenant but deliberately not an active entitlement, otherwise an expired
// account could never reach billing to subscribe.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Use(h.gate.Require(authz.Requirements{
			TenantScoped: true,
		}))
		r.Get("/status", h.Status)
		r.Get("/", h.List)
		r.Post("/", h.Create)
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	ownerID, ok := grant.Owner()
	if !ok {
		core.Forbidden(w, "no commercial account resolved")
		return
	}

	core.OK(w, h.service.Status(r.Context(), ownerID))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	ownerID, ok := grant.Owner()
	if !ok {
		core.Forbidden(w, "no commercial account resolved")
		return
	}

	subs, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := SubscriptionsResponse{
		Subscriptions: make([]SubscriptionResponse, 0, len(subs)),
	}
	for i := range subs {
		resp.Subscriptions = append(
			resp.Subscriptions,
			ToSubscriptionResponse(&subs[i]),
		)
	}

	core.OK(w, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	grant, ok := authz.GrantFromContext(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	ownerID, ok := grant.Owner()
	if !ok {
		core.Forbidden(w, "no commercial account resolved")
		return
	}

	// Only the owner account itself can change billing.
	if !grant.Identity.IsOwner() {
		core.Forbidden(w, "only the account owner can manage subscriptions")
		return
	}

	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	sub, err := h.service.Create(r.Context(), ownerID, req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToSubscriptionResponse(sub))
}
