package handlers

import (
	"errors"
	"net/http"

	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	store store.Store
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(s store.Store) *ProjectHandler {
	return &ProjectHandler{store: s}
}

// CreateProjectRequest is the request body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name           string `json:"name" validate:"required"`
	OrganizationID string `json:"organization_id" validate:"required"`
}

// ProjectResponse is the API representation of a project.
type ProjectResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organization_id"`
}

// Create handles POST /api/v1/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	project := &models.Project{
		Name:           req.Name,
		OrganizationID: req.OrganizationID,
	}
	id, err := h.store.CreateProject(r.Context(), project)
	if err != nil {
		if errors.Is(err, models.ErrOrganizationNotFound) {
			response.NotFound(w, "Organization not found")
			return
		}
		logger.ErrorCtx(r.Context(), "project create failed", logger.Err(err))
		response.InternalServerError(w, "Failed to create project")
		return
	}

	project.ID = id
	response.WriteJSONCreated(w, projectToResponse(project))
}

// projectToResponse converts a Project to its API representation.
func projectToResponse(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
	}
}
