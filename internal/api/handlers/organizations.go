package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sk-platform/skauth/internal/api/middleware"
	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// OrganizationHandler handles organization endpoints.
type OrganizationHandler struct {
	store store.Store
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(s store.Store) *OrganizationHandler {
	return &OrganizationHandler{store: s}
}

// CreateOrganizationRequest is the request body for POST /api/v1/organizations.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required"`
}

// OrganizationResponse is the API representation of an organization.
type OrganizationResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Projects []ProjectResponse `json:"projects,omitempty"`
}

// Create handles POST /api/v1/organizations.
// Creates the organization and links the creating user to it in the
// same transaction.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateOrganizationRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	org := &models.Organization{Name: req.Name}
	id, err := h.store.CreateOrganization(r.Context(), org, identity.User.ID)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateOrganization) {
			response.Conflict(w, "An organization with this name already exists")
			return
		}
		logger.ErrorCtx(r.Context(), "organization create failed", logger.Err(err))
		response.InternalServerError(w, "Failed to create organization")
		return
	}

	logger.InfoCtx(r.Context(), "organization created", "organization_id", id)

	response.WriteJSONCreated(w, OrganizationResponse{ID: id, Name: org.Name})
}

// Get handles GET /api/v1/organizations/{id}.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	org, err := h.store.GetOrganizationByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrOrganizationNotFound) {
			response.NotFound(w, "Organization not found")
			return
		}
		response.InternalServerError(w, "Failed to fetch organization")
		return
	}

	resp := OrganizationResponse{ID: org.ID, Name: org.Name}
	for _, p := range org.Projects {
		resp.Projects = append(resp.Projects, projectToResponse(&p))
	}
	response.WriteJSONOK(w, resp)
}
