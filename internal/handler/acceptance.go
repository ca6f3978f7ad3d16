package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/guardian/guardian/internal/handler/dto"
	"github.com/guardian/guardian/internal/service"
)

// InviteAcceptor completes invited accounts.
type InviteAcceptor interface {
	Accept(ctx context.Context, input service.AcceptInput) (string, error)
}

// AcceptanceHandler handles invitation acceptance. It is the only API
// route that does not require a session.
type AcceptanceHandler struct {
	svc    InviteAcceptor
	logger *slog.Logger
}

// NewAcceptanceHandler creates a new AcceptanceHandler.
func NewAcceptanceHandler(svc InviteAcceptor, logger *slog.Logger) *AcceptanceHandler {
	return &AcceptanceHandler{svc: svc, logger: logger}
}

// Accept handles POST /api/v1/invitations/accept.
func (h *AcceptanceHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req dto.AcceptInvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	accountID, err := h.svc.Accept(r.Context(), service.AcceptInput{
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AcceptInvitationResponse{
		Status:    "confirmed",
		AccountID: accountID,
	})
}
