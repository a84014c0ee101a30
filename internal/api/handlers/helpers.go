// Package handlers provides HTTP handlers for the skauth API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/sk-platform/skauth/internal/api/response"
	"github.com/sk-platform/skauth/pkg/models"
)

var validate = validator.New()

// decodeJSONBody decodes a JSON request body into the provided pointer
// and runs struct-tag validation on it.
// Returns true if successful, false if decoding or validation fails
// (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
			}
			response.BadRequest(w, "Request validation failed", details...)
			return false
		}
		response.BadRequest(w, "Request validation failed")
		return false
	}

	return true
}

// writeDomainError maps a store/domain error to the uniform envelope.
// Used as the fallback for errors a handler has no specific branch for.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrPublicKeyNotFound),
		errors.Is(err, models.ErrOrganizationNotFound),
		errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrTokenNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, models.ErrDuplicateUser),
		errors.Is(err, models.ErrDuplicatePublicKey),
		errors.Is(err, models.ErrDuplicateOrganization),
		errors.Is(err, models.ErrDuplicateProject):
		response.Conflict(w, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	default:
		response.InternalServerError(w, "Internal server error")
	}
}
