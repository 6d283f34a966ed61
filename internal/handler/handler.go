// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in JSON error bodies.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeConfiguration   = "CONFIGURATION_ERROR"
	CodeStorage         = "STORAGE_ERROR"
	CodePaymentProvider = "PAYMENT_PROVIDER_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, CodeBadRequest, "resource not found", "", "")
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed", "", "")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already on the wire, an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response. Details carries the upstream
// provider message when one exists; hint tells the operator what to check.
func writeError(w http.ResponseWriter, status int, code, message, details, hint string) {
	writeJSON(w, status, errorBody{
		Error:   message,
		Code:    code,
		Details: details,
		Hint:    hint,
	})
}
