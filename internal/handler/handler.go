// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/guardian/guardian/internal/handler/dto"
	"github.com/guardian/guardian/internal/service"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// Handler serves the endpoints that have no dependencies.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello is a simple hello endpoint for testing.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Hello from Guardian!",
		"version": Version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, dto.ErrorResponse{
		ErrorKind: string(service.KindNotFound),
		Message:   "resource not found",
	})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, dto.ErrorResponse{
		ErrorKind: string(service.KindInvalidArgument),
		Message:   "method not allowed",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, body dto.ErrorResponse) {
	writeJSON(w, status, body)
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as a classified JSON error.
// Unclassified errors are logged and reported as UpstreamError.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		logger.Error("internal_error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, dto.ErrorResponse{
			ErrorKind: string(service.KindUpstream),
			Message:   "an internal error occurred",
		})
		return
	}

	if se.Kind == service.KindUpstream {
		logger.Error("upstream_error",
			slog.String("message", se.Message),
			slog.String("child_id", se.ChildID),
			slog.Any("error", se.Err),
		)
	}

	writeError(w, statusForKind(se.Kind), dto.ErrorResponse{
		ErrorKind: string(se.Kind),
		Message:   se.Message,
		ChildID:   se.ChildID,
	})
}

// decodeJSON reads a JSON request body into dst and writes a 400 on failure.
// It returns false if the request was answered.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{
			ErrorKind: string(service.KindInvalidArgument),
			Message:   "request body too large",
		})
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, dto.ErrorResponse{
			ErrorKind: string(service.KindInvalidArgument),
			Message:   "request body is required",
		})
	default:
		writeError(w, http.StatusBadRequest, dto.ErrorResponse{
			ErrorKind: string(service.KindInvalidArgument),
			Message:   "invalid JSON body",
		})
	}
	return false
}

// queryLimit parses the "limit" query parameter. Invalid values yield 0,
// which the services replace with their default.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}
