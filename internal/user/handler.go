// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

// Handler serves the admin view of store accounts.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator, adminOnly)

		r.Get("/", h.ListUsers)
		r.Put("/{userID}/role", h.UpdateUserRole)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, err := listParamsFromQuery(r.URL.Query())
	if err != nil {
		core.BadRequest(w, "role must be customer or admin")
		return
	}

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.Paginated(w, toResponses(users), params.Page, params.PageSize, total)
}

// UpdateUserRole moves an account between customer and admin. The last
// door back into the admin routes is the caller's own role, so an admin
// may not demote themselves.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "userID")

	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if target == middleware.GetUserID(r.Context()) && req.Role != RoleAdmin {
		core.Forbidden(w, "cannot remove your own admin role")
		return
	}

	u, err := h.service.UpdateUserRole(r.Context(), target, req.Role)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, toResponse(u))
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "role must be customer or admin")
	default:
		core.InternalServerError(w, err)
	}
}
