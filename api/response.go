package api

import (
	"encoding/json"
	"net/http"
)

// Envelope codes.
const (
	CodeOK              = 1000
	CodeInvalidPayload  = 1001
	CodeUnauthenticated = 1007
	CodeRateLimited     = 1008
	CodeInternal        = 9999
)

// Response is the envelope written for every request.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, result any) {
	respondJSON(w, http.StatusOK, Response{Code: CodeOK, Result: result})
}

func respondError(w http.ResponseWriter, status, code int, message string) {
	respondJSON(w, status, Response{Code: code, Message: message})
}
