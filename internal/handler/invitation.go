package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/handler/dto"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/service"
)

// Inviter runs the invitation flow.
type Inviter interface {
	Invite(ctx context.Context, caller *model.Caller, input service.InviteInput) (*service.InviteResult, error)
}

// InvitationHandler handles child invitations.
type InvitationHandler struct {
	svc    Inviter
	logger *slog.Logger
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(svc Inviter, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, logger: logger}
}

// Invite handles POST /functions/v1/invite-child and POST /api/v1/children/invite.
// The caller is checked before the body is read.
func (h *InvitationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	caller := auth.CallerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, dto.ErrorResponse{
			ErrorKind: string(service.KindUnauthenticated),
			Message:   "authentication required",
		})
		return
	}

	var req dto.InviteChildRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Invite(r.Context(), caller, service.InviteInput{
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InviteChildResponse{
		Status:  result.Status,
		ChildID: result.ChildID,
	})
}
