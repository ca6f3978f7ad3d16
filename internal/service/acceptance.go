package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/repository"
)

// InviteVerifier checks invitation tokens.
type InviteVerifier interface {
	VerifyInvite(raw string) (*auth.InviteClaims, error)
}

// AcceptInput completes an invited account.
type AcceptInput struct {
	Token    string
	Password string
}

// AcceptanceService lets an invited child set the password of the
// account a parent created for them.
type AcceptanceService struct {
	tokens   InviteVerifier
	accounts AccountStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewAcceptanceService creates a new AcceptanceService.
func NewAcceptanceService(tokens InviteVerifier, accounts AccountStore, logger *slog.Logger) *AcceptanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AcceptanceService{
		tokens:   tokens,
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

// Accept verifies the invitation token and stores the chosen password.
// It returns the confirmed account id.
func (s *AcceptanceService) Accept(ctx context.Context, input AcceptInput) (string, error) {
	if input.Token == "" || input.Password == "" {
		return "", newError(KindInvalidArgument, "token and password are required")
	}

	claims, err := s.tokens.VerifyInvite(input.Token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return "", newError(KindInvalidArgument, "invitation has expired; ask your parent to invite you again")
		}
		return "", newError(KindInvalidArgument, "invitation link is not valid")
	}

	hash, err := auth.HashCredential(input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return "", newError(KindInvalidArgument, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		}
		return "", upstream("failed to hash password", err)
	}

	accountID := claims.Subject
	if err := s.accounts.ConfirmAccount(ctx, accountID, hash, s.now().UTC()); err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountConfirmed):
			return "", newError(KindConflict, "invitation was already accepted")
		case errors.Is(err, repository.ErrAccountNotFound):
			return "", newError(KindNotFound, "invited account no longer exists")
		}
		return "", upstream("failed to confirm account", err)
	}

	s.logger.Info("invite_accepted", slog.String("account_id", accountID))
	return accountID, nil
}
