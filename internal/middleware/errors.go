package middleware

import (
	"encoding/json"
	"net/http"
)

// Error kinds written by middleware. They match the kinds used by handlers.
const (
	kindUnauthenticated = "Unauthenticated"
	kindInvalidArgument = "InvalidArgument"
	kindRateLimited     = "RateLimited"
	kindUpstream        = "UpstreamError"
)

type errorBody struct {
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}

// writeError writes the JSON error body shared with the handlers.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{ErrorKind: kind, Message: message})
}
