// Package response writes the relay's JSON response shapes. All failure
// responses share the flat {"error": "..."} body.
package response

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Accepted writes v with 202.
func Accepted(w http.ResponseWriter, v any) {
	JSON(w, http.StatusAccepted, v)
}

// Error writes the flat error body with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}
