package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// UserHandler handles admin-only user management endpoints.
type UserHandler struct {
	store store.Store
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(s store.Store) *UserHandler {
	return &UserHandler{store: s}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		logger.ErrorCtx(r.Context(), "user list failed", logger.Err(err))
		response.InternalServerError(w, "Failed to list users")
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	response.WriteJSONOK(w, out)
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalServerError(w, "Failed to fetch user")
		return
	}

	response.WriteJSONOK(w, userToResponse(user))
}

// Delete handles DELETE /api/v1/users/{id}.
// Removes the user with their tokens and public key in one transaction.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		logger.ErrorCtx(r.Context(), "user delete failed", logger.UserID(id), logger.Err(err))
		response.InternalServerError(w, "Failed to delete user")
		return
	}

	logger.InfoCtx(r.Context(), "user deleted", logger.UserID(id))
	response.WriteNoContent(w)
}
