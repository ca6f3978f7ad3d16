package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/handler/dto"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/service"
)

// GeofenceManager manages a parent's geofences.
type GeofenceManager interface {
	ListGeofences(ctx context.Context, caller *model.Caller) ([]*model.Geofence, error)
	CreateGeofence(ctx context.Context, caller *model.Caller, input service.GeofenceInput) (*model.Geofence, error)
	DeleteGeofence(ctx context.Context, caller *model.Caller, id string) error
}

// GeofenceHandler handles HTTP requests for geofences.
type GeofenceHandler struct {
	svc    GeofenceManager
	logger *slog.Logger
}

// NewGeofenceHandler creates a new GeofenceHandler.
func NewGeofenceHandler(svc GeofenceManager, logger *slog.Logger) *GeofenceHandler {
	return &GeofenceHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/geofences.
func (h *GeofenceHandler) List(w http.ResponseWriter, r *http.Request) {
	geofences, err := h.svc.ListGeofences(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	data := make([]dto.GeofenceResponse, len(geofences))
	for i, g := range geofences {
		data[i] = dto.ToGeofenceResponse(g)
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[dto.GeofenceResponse]{Data: data})
}

// Create handles POST /api/v1/geofences.
func (h *GeofenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.GeofenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeError(w, http.StatusBadRequest, dto.ErrorResponse{
			ErrorKind: string(service.KindInvalidArgument),
			Message:   "latitude and longitude are required",
		})
		return
	}

	g, err := h.svc.CreateGeofence(r.Context(), auth.CallerFromContext(r.Context()), service.GeofenceInput{
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Radius:    req.Radius,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("geofence_created", slog.String("geofence_id", g.ID), slog.String("parent_id", g.ParentID))
	writeJSON(w, http.StatusCreated, dto.ToGeofenceResponse(g))
}

// Delete handles DELETE /api/v1/geofences/{id}.
func (h *GeofenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGeofence(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
