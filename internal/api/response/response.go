// Package response provides the JSON response envelope for the skauth API.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorType classifies API failures for machine consumption. Clients
// branch on the type; Message is for humans.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation_error"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypeAuthorization  ErrorType = "authorization_error"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeInternal       ErrorType = "internal_error"
)

// ErrorBody is the uniform error response envelope.
//
// Every failure the API reports, from any layer, serializes to this
// shape: {"success": false, "error_type": ..., "message": ..., "errors": [...]}.
// Errors carries per-field detail for validation failures and is
// omitted otherwise.
type ErrorBody struct {
	Success   bool      `json:"success"`
	ErrorType ErrorType `json:"error_type"`
	Message   string    `json:"message"`
	Errors    []string  `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error envelope with the given status code.
func WriteError(w http.ResponseWriter, status int, errType ErrorType, message string, details ...string) {
	WriteJSON(w, status, ErrorBody{
		Success:   false,
		ErrorType: errType,
		Message:   message,
		Errors:    details,
	})
}

// Common error helpers for standard HTTP failures.

// BadRequest writes a 400 validation error response.
func BadRequest(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusBadRequest, ErrorTypeValidation, message, details...)
}

// Unauthorized writes a 401 authentication error response.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrorTypeAuthentication, message)
}

// Forbidden writes a 403 authorization error response.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrorTypeAuthorization, message)
}

// NotFound writes a 404 not found error response.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrorTypeNotFound, message)
}

// Conflict writes a 409 conflict error response.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrorTypeConflict, message)
}

// InternalServerError writes a 500 internal error response.
func InternalServerError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrorTypeInternal, message)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
