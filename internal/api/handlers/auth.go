package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/internal/api/middleware"
	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/internal/metrics"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// AuthHandler handles the web (password + cookie) authentication endpoints.
type AuthHandler struct {
	store        store.Store
	sessions     *auth.SessionIssuer
	metrics      *metrics.AuthMetrics
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. cookieSecure controls the
// Secure flag on the session cookie and should be true everywhere TLS
// terminates in front of the service.
func NewAuthHandler(s store.Store, sessions *auth.SessionIssuer, m *metrics.AuthMetrics, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		store:        s,
		sessions:     sessions,
		metrics:      m,
		cookieSecure: cookieSecure,
	}
}

// RegisterRequest is the request body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is the response body for successful register/login.
type SessionResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	User      UserResponse `json:"user"`
}

// UserResponse is a sanitized user representation for API responses.
type UserResponse struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	Role           string  `json:"role"`
	OrganizationID *string `json:"organization_id,omitempty"`
	HasPublicKey   bool    `json:"has_public_key"`
}

// setSessionCookie attaches the session token as an HTTP-only cookie.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt *time.Time) {
	cookie := &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
	if expiresAt != nil {
		cookie.Expires = *expiresAt
	}
	http.SetCookie(w, cookie)
}

// clearSessionCookie expires the session cookie.
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// Register handles POST /api/v1/auth/register.
// Creates an admin user with a bcrypt-hashed password and opens a web
// session for it.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, models.ErrPasswordTooShort) || errors.Is(err, models.ErrPasswordTooLong) {
			response.BadRequest(w, err.Error())
			return
		}
		response.InternalServerError(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: &hash,
		Role:         string(models.RoleAdmin),
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			response.Conflict(w, "A user with this email already exists")
			return
		}
		logger.ErrorCtx(r.Context(), "user registration failed", logger.Email(req.Email), logger.Err(err))
		response.InternalServerError(w, "Registration failed")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user, models.TokenTypeWebSession)
	if err != nil {
		response.InternalServerError(w, "Failed to create session")
		return
	}

	logger.InfoCtx(r.Context(), "user registered", logger.UserID(user.ID), logger.Email(user.Email))

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	response.WriteJSONCreated(w, SessionResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      userToResponse(user),
	})
}

// Login handles POST /api/v1/auth/login.
// Verifies email/password credentials and opens a web session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) || errors.Is(err, models.ErrUserNotFound) {
			h.metrics.RecordLogin("web", "invalid_credentials")
			response.Unauthorized(w, "Invalid email or password")
			return
		}
		h.metrics.RecordLogin("web", "error")
		logger.ErrorCtx(r.Context(), "credential validation failed", logger.Err(err))
		response.InternalServerError(w, "Authentication failed")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user, models.TokenTypeWebSession)
	if err != nil {
		h.metrics.RecordLogin("web", "error")
		response.InternalServerError(w, "Failed to create session")
		return
	}

	h.metrics.RecordLogin("web", "success")
	logger.InfoCtx(r.Context(), "web login", logger.UserID(user.ID), logger.Email(user.Email))

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	response.WriteJSONOK(w, SessionResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      userToResponse(user),
	})
}

// Logout handles POST /api/v1/auth/logout.
// Deletes every web session row for the caller, so all browser sessions
// die at once, and expires the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.store.DeleteTokensByType(r.Context(), identity.User.ID, models.TokenTypeWebSession); err != nil {
		logger.ErrorCtx(r.Context(), "logout failed", logger.UserID(identity.User.ID), logger.Err(err))
		response.InternalServerError(w, "Logout failed")
		return
	}

	h.metrics.RecordLogout("web")
	logger.InfoCtx(r.Context(), "web logout", logger.UserID(identity.User.ID))

	h.clearSessionCookie(w)
	response.WriteJSONOK(w, map[string]bool{"success": true})
}

// Me handles GET /api/v1/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	response.WriteJSONOK(w, userToResponse(identity.User))
}

// userToResponse converts a User to a UserResponse for API output.
func userToResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		HasPublicKey:   user.PublicKey != nil,
	}
}
