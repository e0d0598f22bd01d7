package utils

import (
	"encoding/json"
	"net/http"
)

// AuthorizationFailureMessage is the body of a plain role check denial,
// written as a JSON string
const AuthorizationFailureMessage = "Authorization Failure. Check your username and password or your Certificate"

// ErrorResponse is the JSON body of every non-2xx answer except a plain
// authorization failure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps user and consumer payloads
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON encodes data with the given status. A nil data writes no body.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, fallback string, details map[string]interface{}) error {
	if message == "" {
		message = fallback
	}
	return WriteJSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteAuthorizationFailure writes the 401 for a denied role check. The body
// is a bare JSON string, not an ErrorResponse.
func WriteAuthorizationFailure(w http.ResponseWriter) error {
	return WriteJSON(w, http.StatusUnauthorized, AuthorizationFailureMessage)
}

// WriteIdentityNotFound writes the 401 for a Basic login with no user behind it
func WriteIdentityNotFound(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusUnauthorized, "identity_not_found", message, "", details)
}

func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusBadRequest, "bad_request", message, "", details)
}

func WriteNotFound(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusNotFound, "not_found", message, "Resource not found", nil)
}

func WriteConflict(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return writeError(w, http.StatusConflict, "conflict", message, "", details)
}

// WriteServiceUnavailable writes a 503 with a status payload, used by /readyz
func WriteServiceUnavailable(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusServiceUnavailable, data)
}

// WriteInternalServerError never echoes the underlying cause
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return writeError(w, http.StatusInternalServerError, "internal_error", message, "Internal server error", nil)
}
