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

// SafetyFeed is the alert and quick message feed.
type SafetyFeed interface {
	ListAlerts(ctx context.Context, caller *model.Caller, limit int) ([]*model.Alert, error)
	MarkAlertRead(ctx context.Context, caller *model.Caller, id string) error
	RaiseSOS(ctx context.Context, caller *model.Caller, input service.SOSInput) (*model.Alert, error)
	ListMessages(ctx context.Context, caller *model.Caller, limit int) ([]*model.QuickMessage, error)
	SendMessage(ctx context.Context, caller *model.Caller, input service.MessageInput) (*model.QuickMessage, error)
	MarkMessageRead(ctx context.Context, caller *model.Caller, id string) error
	ReportLocation(ctx context.Context, caller *model.Caller, input service.LocationInput) (*service.LocationResult, error)
}

// SafetyHandler handles alerts, quick messages and location reports.
type SafetyHandler struct {
	svc    SafetyFeed
	logger *slog.Logger
}

// NewSafetyHandler creates a new SafetyHandler.
func NewSafetyHandler(svc SafetyFeed, logger *slog.Logger) *SafetyHandler {
	return &SafetyHandler{svc: svc, logger: logger}
}

// ListAlerts handles GET /api/v1/alerts.
func (h *SafetyHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.ListAlerts(r.Context(), auth.CallerFromContext(r.Context()), queryLimit(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	data := make([]dto.AlertResponse, len(alerts))
	for i, a := range alerts {
		data[i] = dto.ToAlertResponse(a)
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[dto.AlertResponse]{Data: data})
}

// MarkAlertRead handles POST /api/v1/alerts/{id}/read.
func (h *SafetyHandler) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkAlertRead(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RaiseSOS handles POST /api/v1/alerts/sos.
func (h *SafetyHandler) RaiseSOS(w http.ResponseWriter, r *http.Request) {
	var req dto.SOSRequest
	// Coordinates are optional, so an empty body is a valid SOS.
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	alert, err := h.svc.RaiseSOS(r.Context(), auth.CallerFromContext(r.Context()), service.SOSInput{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ToAlertResponse(alert))
}

// ListMessages handles GET /api/v1/messages.
func (h *SafetyHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.ListMessages(r.Context(), auth.CallerFromContext(r.Context()), queryLimit(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	data := make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		data[i] = dto.ToMessageResponse(m)
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[dto.MessageResponse]{Data: data})
}

// SendMessage handles POST /api/v1/messages.
func (h *SafetyHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), auth.CallerFromContext(r.Context()), service.MessageInput{
		Text:      req.Message,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ToMessageResponse(msg))
}

// MarkMessageRead handles POST /api/v1/messages/{id}/read.
func (h *SafetyHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkMessageRead(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReportLocation handles POST /api/v1/locations.
func (h *SafetyHandler) ReportLocation(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationRequest
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

	result, err := h.svc.ReportLocation(r.Context(), auth.CallerFromContext(r.Context()), service.LocationInput{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Battery:   req.BatteryLevel,
		Speed:     req.Speed,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := dto.LocationResponse{
		ID: result.Point.ID,
		Location: dto.LocationView{
			Latitude:     result.Point.Latitude,
			Longitude:    result.Point.Longitude,
			BatteryLevel: result.Point.Battery,
			Speed:        result.Point.Speed,
			RecordedAt:   result.Point.RecordedAt,
		},
	}
	if result.Alert != nil {
		alert := dto.ToAlertResponse(result.Alert)
		resp.Alert = &alert
	}
	writeJSON(w, http.StatusCreated, resp)
}
