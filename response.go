package main

import (
	"encoding/json"
	"net/http"

	"lrc-fetch-go/lyrics"
)

// APIResponse handles consistent header setting and JSON responses.
type APIResponse struct {
	w http.ResponseWriter
	r *http.Request
}

// Respond creates a response helper from request context.
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json; charset=utf-8")
}

// JSON writes headers and encodes data as JSON (200 OK).
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets the status code and encodes an error body.
func (a *APIResponse) Error(statusCode int, message string) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(map[string]string{"error": message})
}

// errorMessage renders an error for clients: classified pipeline errors are
// prefixed with their kind name.
func errorMessage(err error) string {
	if kind := lyrics.KindOf(err); kind != 0 {
		return kind.String() + ": " + err.Error()
	}
	return err.Error()
}
