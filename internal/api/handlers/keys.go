package handlers

import (
	"errors"
	"net/http"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/internal/api/middleware"
	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// KeysHandler handles public key registration and the one-time key-gen
// tokens that authorize it.
type KeysHandler struct {
	store    store.Store
	sessions *auth.SessionIssuer
}

// NewKeysHandler creates a new KeysHandler.
func NewKeysHandler(s store.Store, sessions *auth.SessionIssuer) *KeysHandler {
	return &KeysHandler{
		store:    s,
		sessions: sessions,
	}
}

// CreateKeyGenTokenRequest is the request body for POST /api/v1/keys/token.
type CreateKeyGenTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// CreateKeyGenTokenResponse is the response body for POST /api/v1/keys/token.
type CreateKeyGenTokenResponse struct {
	Token string `json:"token"`
}

// VerifyKeyGenTokenRequest is the request body for POST /api/v1/keys/token/verify.
// PublicKey is optional: when present, the key is registered for the
// token's user in the same call, which is how first-time CLI users get
// their key in without having any other credential.
type VerifyKeyGenTokenRequest struct {
	Token     string `json:"token" validate:"required"`
	PublicKey string `json:"public_key,omitempty"`
}

// VerifyKeyGenTokenResponse is the response body for POST /api/v1/keys/token/verify.
type VerifyKeyGenTokenResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// RegisterKeyRequest is the request body for POST /api/v1/keys.
type RegisterKeyRequest struct {
	PublicKey string `json:"public_key" validate:"required"`
}

// RegisterKeyResponse is the response body for POST /api/v1/keys.
type RegisterKeyResponse struct {
	Fingerprint string `json:"fingerprint"`
}

// CreateKeyGenToken handles POST /api/v1/keys/token (admin only).
// Mints a one-time key-gen token for the named user.
func (h *KeysHandler) CreateKeyGenToken(w http.ResponseWriter, r *http.Request) {
	var req CreateKeyGenTokenRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalServerError(w, "Failed to mint token")
		return
	}

	token, err := h.sessions.CreateKeyGenToken(r.Context(), user)
	if err != nil {
		logger.ErrorCtx(r.Context(), "key-gen token mint failed", logger.UserID(user.ID), logger.Err(err))
		response.InternalServerError(w, "Failed to mint token")
		return
	}

	logger.InfoCtx(r.Context(), "key-gen token minted", logger.UserID(user.ID))

	response.WriteJSONCreated(w, CreateKeyGenTokenResponse{Token: token})
}

// VerifyKeyGenToken handles POST /api/v1/keys/token/verify.
// Verifies a one-time token and burns it. When the request carries a
// public key, the key is registered for the token's user before the
// response is written.
func (h *KeysHandler) VerifyKeyGenToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyKeyGenTokenRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	claims, err := h.sessions.VerifyKeyGenToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			response.Unauthorized(w, "Token has expired")
			return
		}
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInvalidTokenType) {
			response.Unauthorized(w, "Invalid token")
			return
		}
		response.InternalServerError(w, "Verification failed")
		return
	}

	resp := VerifyKeyGenTokenResponse{
		UserID: claims.UserID,
		Email:  claims.Email,
	}

	if req.PublicKey != "" {
		fingerprint, err := h.registerKey(w, r, claims.UserID, req.PublicKey)
		if err != nil {
			return
		}
		resp.Fingerprint = fingerprint
	}

	logger.InfoCtx(r.Context(), "key-gen token verified", logger.UserID(claims.UserID))

	response.WriteJSONOK(w, resp)
}

// RegisterKey handles POST /api/v1/keys.
// Registers an RSA public key for the authenticated user.
func (h *KeysHandler) RegisterKey(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req RegisterKeyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	fingerprint, err := h.registerKey(w, r, identity.User.ID, req.PublicKey)
	if err != nil {
		return
	}

	response.WriteJSONCreated(w, RegisterKeyResponse{Fingerprint: fingerprint})
}

// registerKey validates and stores a PEM public key for the user.
// On failure the error response has already been written.
func (h *KeysHandler) registerKey(w http.ResponseWriter, r *http.Request, userID, keyPEM string) (string, error) {
	if _, err := auth.ParseRSAPublicKey(keyPEM); err != nil {
		response.BadRequest(w, "Public key must be a PEM-encoded RSA key")
		return "", err
	}

	key := &models.PublicKey{
		Fingerprint: models.KeyFingerprint(keyPEM),
		KeyValue:    keyPEM,
		UserID:      userID,
	}

	if err := h.store.CreatePublicKey(r.Context(), key); err != nil {
		if errors.Is(err, models.ErrDuplicatePublicKey) {
			response.Conflict(w, "A public key is already registered")
			return "", err
		}
		logger.ErrorCtx(r.Context(), "key registration failed", logger.UserID(userID), logger.Err(err))
		response.InternalServerError(w, "Failed to register key")
		return "", err
	}

	logger.InfoCtx(r.Context(), "public key registered",
		logger.UserID(userID), logger.Fingerprint(key.Fingerprint))

	return key.Fingerprint, nil
}
