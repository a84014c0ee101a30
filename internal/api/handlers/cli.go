package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sk-platform/skauth/internal/api/auth"
	"github.com/sk-platform/skauth/internal/api/middleware"
	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/internal/logger"
	"github.com/sk-platform/skauth/internal/metrics"
	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

// CLIHandler handles the challenge-response login endpoints used by the
// CLI with a registered RSA key pair.
type CLIHandler struct {
	store    store.Store
	nonces   *auth.NonceEngine
	sessions *auth.SessionIssuer
	metrics  *metrics.AuthMetrics
}

// NewCLIHandler creates a new CLIHandler.
func NewCLIHandler(s store.Store, nonces *auth.NonceEngine, sessions *auth.SessionIssuer, m *metrics.AuthMetrics) *CLIHandler {
	return &CLIHandler{
		store:    s,
		nonces:   nonces,
		sessions: sessions,
		metrics:  m,
	}
}

// RequestNonceRequest is the request body for POST /api/v1/cli/request-nonce.
type RequestNonceRequest struct {
	Fingerprint string `json:"fingerprint" validate:"required"`
}

// RequestNonceResponse is the response body for POST /api/v1/cli/request-nonce.
type RequestNonceResponse struct {
	Nonce string `json:"nonce"`
}

// CLILoginRequest is the request body for POST /api/v1/cli/login.
//
// SignedPayload is kept as raw JSON: the signature was produced over
// the exact bytes the client marshalled, so re-decoding into a struct
// before verification would break it.
type CLILoginRequest struct {
	Nonce         string          `json:"nonce" validate:"required"`
	SignedPayload json.RawMessage `json:"signedPayload" validate:"required"`
	Signature     string          `json:"signature" validate:"required"`
}

// CLILoginResponse is the response body for POST /api/v1/cli/login.
type CLILoginResponse struct {
	Token string `json:"token"`
}

// signedPayloadFields is the decoded view of the signed payload, used
// only to cross-check the nonce binding after verification.
type signedPayloadFields struct {
	Nonce string `json:"nonce"`
}

// RequestNonce handles POST /api/v1/cli/request-nonce.
// Resolves the key fingerprint to a user and issues a challenge nonce.
func (h *CLIHandler) RequestNonce(w http.ResponseWriter, r *http.Request) {
	var req RequestNonceRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	key, err := h.store.GetPublicKeyByFingerprint(r.Context(), req.Fingerprint)
	if err != nil {
		if errors.Is(err, models.ErrPublicKeyNotFound) {
			response.NotFound(w, "Unknown key fingerprint")
			return
		}
		logger.ErrorCtx(r.Context(), "key lookup failed", logger.Err(err))
		response.InternalServerError(w, "Failed to issue nonce")
		return
	}

	nonce, err := h.nonces.Issue(r.Context(), key.UserID)
	if err != nil {
		logger.ErrorCtx(r.Context(), "nonce issuance failed", logger.UserID(key.UserID), logger.Err(err))
		response.InternalServerError(w, "Failed to issue nonce")
		return
	}

	h.metrics.RecordNonceIssued()
	logger.DebugCtx(r.Context(), "nonce issued", logger.UserID(key.UserID), logger.Fingerprint(req.Fingerprint))

	response.WriteJSONOK(w, RequestNonceResponse{Nonce: nonce})
}

// Login handles POST /api/v1/cli/login.
//
// The nonce is validated up front without being consumed, so a failed
// signature leaves it usable for a retry within its window. It is
// burned only after the signature checks out; losing that final race
// means another login already spent it.
func (h *CLIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CLILoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	validation, err := h.nonces.Validate(r.Context(), req.Nonce)
	if err != nil {
		h.metrics.RecordLogin("cli", "invalid_nonce")
		switch {
		case errors.Is(err, models.ErrNonceNotFound):
			response.Unauthorized(w, "Unknown nonce")
		case errors.Is(err, models.ErrNonceAlreadyUsed):
			response.Unauthorized(w, "Nonce has already been used")
		case errors.Is(err, models.ErrNonceExpired):
			response.Unauthorized(w, "Nonce has expired")
		default:
			h.metrics.RecordLogin("cli", "error")
			logger.ErrorCtx(r.Context(), "nonce validation failed", logger.Err(err))
			response.InternalServerError(w, "Login failed")
		}
		return
	}

	key, err := h.store.GetPublicKeyByUserID(r.Context(), validation.UserID)
	if err != nil {
		if errors.Is(err, models.ErrPublicKeyNotFound) {
			response.Unauthorized(w, "No public key registered")
			return
		}
		logger.ErrorCtx(r.Context(), "key lookup failed", logger.UserID(validation.UserID), logger.Err(err))
		response.InternalServerError(w, "Login failed")
		return
	}

	ok, err := auth.VerifySignature(key.KeyValue, req.SignedPayload, req.Signature)
	if err != nil {
		h.metrics.RecordLogin("cli", "invalid_signature")
		response.BadRequest(w, "Malformed signature payload")
		return
	}
	if !ok {
		h.metrics.RecordLogin("cli", "invalid_signature")
		logger.WarnCtx(r.Context(), "signature verification failed", logger.UserID(validation.UserID))
		response.Unauthorized(w, "Signature verification failed")
		return
	}

	// The signed payload must name the nonce it answers, otherwise a
	// captured signature could be replayed against a fresh challenge.
	var fields signedPayloadFields
	if err := json.Unmarshal(req.SignedPayload, &fields); err != nil || fields.Nonce != req.Nonce {
		h.metrics.RecordLogin("cli", "invalid_signature")
		response.Unauthorized(w, "Signed payload does not match nonce")
		return
	}

	if err := h.nonces.Consume(r.Context(), validation.NonceID); err != nil {
		if errors.Is(err, models.ErrNonceAlreadyUsed) {
			h.metrics.RecordLogin("cli", "invalid_nonce")
			response.Unauthorized(w, "Nonce has already been used")
			return
		}
		logger.ErrorCtx(r.Context(), "nonce consume failed", logger.Err(err))
		response.InternalServerError(w, "Login failed")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), validation.UserID)
	if err != nil {
		logger.ErrorCtx(r.Context(), "user lookup failed", logger.UserID(validation.UserID), logger.Err(err))
		response.InternalServerError(w, "Login failed")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user, models.TokenTypeCLISession)
	if err != nil {
		h.metrics.RecordLogin("cli", "error")
		response.InternalServerError(w, "Failed to create session")
		return
	}

	h.metrics.RecordLogin("cli", "success")
	logger.InfoCtx(r.Context(), "cli login", logger.UserID(user.ID), logger.Email(user.Email))

	response.WriteJSONOK(w, CLILoginResponse{Token: session.Token})
}

// Logout handles POST /api/v1/cli/logout.
// Deletes the caller's cli-session rows.
func (h *CLIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.store.DeleteTokensByType(r.Context(), identity.User.ID, models.TokenTypeCLISession); err != nil {
		logger.ErrorCtx(r.Context(), "cli logout failed", logger.UserID(identity.User.ID), logger.Err(err))
		response.InternalServerError(w, "Logout failed")
		return
	}

	h.metrics.RecordLogout("cli")
	logger.InfoCtx(r.Context(), "cli logout", logger.UserID(identity.User.ID))

	response.WriteJSONOK(w, map[string]bool{"success": true})
}
