package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/handler/dto"
	"github.com/guardian/guardian/internal/model"
)

// ChildrenManager lists and edits a parent's children.
type ChildrenManager interface {
	ListChildren(ctx context.Context, caller *model.Caller) ([]*model.ChildSummary, error)
	RenameChild(ctx context.Context, caller *model.Caller, childID, fullName string) error
	UnlinkChild(ctx context.Context, caller *model.Caller, childID string) error
}

// ChildrenHandler handles HTTP requests for a parent's children.
type ChildrenHandler struct {
	svc    ChildrenManager
	logger *slog.Logger
}

// NewChildrenHandler creates a new ChildrenHandler.
func NewChildrenHandler(svc ChildrenManager, logger *slog.Logger) *ChildrenHandler {
	return &ChildrenHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/children.
func (h *ChildrenHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.svc.ListChildren(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	data := make([]dto.ChildResponse, len(children))
	for i, c := range children {
		data[i] = dto.ToChildResponse(c)
	}
	writeJSON(w, http.StatusOK, dto.ListResponse[dto.ChildResponse]{Data: data})
}

// Rename handles PATCH /api/v1/children/{id}.
func (h *ChildrenHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameChildRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	childID := chi.URLParam(r, "id")
	if err := h.svc.RenameChild(r.Context(), auth.CallerFromContext(r.Context()), childID, req.FullName); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unlink handles DELETE /api/v1/children/{id}.
func (h *ChildrenHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	childID := chi.URLParam(r, "id")
	if err := h.svc.UnlinkChild(r.Context(), auth.CallerFromContext(r.Context()), childID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
