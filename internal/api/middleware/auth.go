// Package middleware provides HTTP middleware for the skauth API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// AccessTokenCookie is the cookie carrying the web session token.
const AccessTokenCookie = "access_token"

// Context key type for storing the authenticated identity
type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	// User is the freshly resolved user row, not the claims snapshot.
	// Role checks read from here so a role change takes effect on the
	// next request, not at token renewal.
	User *models.User

	// Claims are the verified JWT claims.
	Claims *auth.Claims

	// TokenID is the store row ID of the presented session token.
	TokenID string
}

// GetIdentityFromContext retrieves the authenticated identity from the
// request context. Returns nil if no identity is present.
//
// This should only be called from handlers behind the Authenticate
// middleware; on routes without it, the result is always nil.
func GetIdentityFromContext(ctx context.Context) *Identity {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

// WithIdentity returns a context carrying the given identity. Exposed
// for handler tests that bypass the middleware.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// extractBearerToken extracts the token from a Bearer Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// extractToken finds the session token on the request. The browser
// cookie is checked first, then the Authorization header used by the
// CLI.
func extractToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return extractBearerToken(r)
}

// Authenticate validates the session credential on every request.
//
// A structurally valid JWT is not enough: the token must also have a
// live row in the store. The chain is token extraction, signature
// verification, store lookup, revocation and expiry checks, then user
// resolution. Any failure short-circuits with 401 and the uniform
// error envelope.
func Authenticate(jwtService *auth.JWTService, st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(r)
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			claims, err := jwtService.ValidateSessionToken(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					response.Unauthorized(w, "Token has expired")
					return
				}
				response.Unauthorized(w, "Invalid token")
				return
			}

			record, err := st.GetTokenByValue(r.Context(), tokenString)
			if err != nil {
				if errors.Is(err, models.ErrTokenNotFound) {
					response.Unauthorized(w, "Session not found")
					return
				}
				logger.ErrorCtx(r.Context(), "session lookup failed", logger.Err(err))
				response.InternalServerError(w, "Authentication failed")
				return
			}

			if !record.IsValid {
				response.Unauthorized(w, "Session has been revoked")
				return
			}
			if record.Expired(time.Now()) {
				response.Unauthorized(w, "Session has expired")
				return
			}

			user, err := st.GetUserByID(r.Context(), record.UserID)
			if err != nil {
				if errors.Is(err, models.ErrUserNotFound) {
					response.Unauthorized(w, "User no longer exists")
					return
				}
				logger.ErrorCtx(r.Context(), "user lookup failed", logger.Err(err))
				response.InternalServerError(w, "Authentication failed")
				return
			}

			logger.FromContext(r.Context()).SetUser(user.ID)

			identity := &Identity{
				User:    user,
				Claims:  claims,
				TokenID: record.ID,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole blocks callers whose role is not in the allow-list.
// With no roles given, any authenticated caller passes.
// Must be used after the Authenticate middleware.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentityFromContext(r.Context())
			if identity == nil {
				response.Unauthorized(w, "Authentication required")
				return
			}

			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			role := identity.User.GetRole()
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireAdmin blocks non-admin users.
// Must be used after the Authenticate middleware.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)
}
