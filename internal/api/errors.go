package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rentgrid/rentgrid-core/internal/auth"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// Required and Actual are populated for insufficient_role only, for
	// diagnostics. They never grant access.
	Required []auth.Role `json:"required,omitempty"`
	Actual   auth.Role   `json:"actual,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
)

// Authorisation error kinds. Each auth sentinel maps to exactly one of
// these; the client relies on the code, not the message.
const (
	ErrCodeMissingCredential = "missing_credential"
	ErrCodeInvalidCredential = "invalid_credential"
	ErrCodeAccountNotFound   = "account_not_found"
	ErrCodeAccountInactive   = "account_inactive"
	ErrCodeInsufficientRole  = "insufficient_role"
	ErrCodeInvalidLogin      = "invalid_login"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// authErrorKind maps an authorisation failure to its error kind and HTTP
// status. Role denial is 403; every other kind is 401. Unrecognised errors
// collapse to invalid_credential rather than leaking internals.
func authErrorKind(err error) (status int, code string) {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return http.StatusUnauthorized, ErrCodeMissingCredential
	case errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized, ErrCodeInvalidCredential
	case errors.Is(err, auth.ErrAccountNotFound):
		return http.StatusUnauthorized, ErrCodeAccountNotFound
	case errors.Is(err, auth.ErrAccountInactive):
		return http.StatusUnauthorized, ErrCodeAccountInactive
	case errors.Is(err, auth.ErrInsufficientRole):
		return http.StatusForbidden, ErrCodeInsufficientRole
	default:
		return http.StatusUnauthorized, ErrCodeInvalidCredential
	}
}

// writeAuthError writes the error response for a rejected authorisation.
// For insufficient_role the response carries the required set and actual
// role alongside the kind.
func writeAuthError(w http.ResponseWriter, err error) {
	status, code := authErrorKind(err)

	resp := Error{
		Status:  status,
		Code:    code,
		Message: "authorisation failed",
	}

	var denied *auth.RoleDeniedError
	if errors.As(err, &denied) {
		resp.Required = denied.Required
		resp.Actual = denied.Actual
	}

	writeJSON(w, status, resp)
}
