// Package response writes the API's JSON bodies from plain http handlers
// and middleware. Successful bodies are the payload itself; failures are
// {"error": "..."} with optional field errors.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the shape of every failure response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

// MessageBody acknowledges an update or delete.
type MessageBody struct {
	Message string `json:"message"`
}

// IDBody is returned by create endpoints.
type IDBody struct {
	ID uint `json:"id"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Error sends {"error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: "Datos inválidos", Errors: errs})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "No autorizado"
	}
	Error(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Acceso denegado")
}
