package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/guardian/guardian/internal/directory"
	"github.com/guardian/guardian/internal/metrics"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

// Invitation outcomes.
const (
	StatusCreated = "created"
	StatusLinked  = "linked"
)

const maxEmailLength = 254

// InviteInput is a parent's request to invite or link a child.
type InviteInput struct {
	Email    string
	FullName string
}

// InviteResult reports which child was linked and how.
type InviteResult struct {
	Status  string
	ChildID string
}

// InvitationService ensures a child account exists for an email and is
// linked to the inviting parent exactly once.
type InvitationService struct {
	directory Directory
	profiles  ProfileStore
	relations RelationStore
	cache     ChildrenCache
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(dir Directory, profiles ProfileStore, relations RelationStore, cache ChildrenCache, recorder metrics.Recorder, logger *slog.Logger) *InvitationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InvitationService{
		directory: dir,
		profiles:  profiles,
		relations: relations,
		cache:     cache,
		metrics:   recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Invite invites input.Email as a child of caller, or links the existing
// child account that already uses it. Calling it again with the same
// arguments is safe: the second call reports StatusLinked and adds no
// second relation.
func (s *InvitationService) Invite(ctx context.Context, caller *model.Caller, input InviteInput) (*InviteResult, error) {
	start := s.now()
	result, err := s.invite(ctx, caller, input)
	s.metrics.ObserveInviteDuration(s.now().Sub(start))

	if err != nil {
		kind := KindOf(err)
		s.metrics.IncInviteFailed(string(kind))
		s.logger.Warn("invite_failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.IncInviteSucceeded(result.Status)
	return result, nil
}

func (s *InvitationService) invite(ctx context.Context, caller *model.Caller, input InviteInput) (*InviteResult, error) {
	if caller == nil || caller.UserID == "" {
		return nil, errUnauthenticated
	}

	email, fullName, err := validateInviteInput(caller, input)
	if err != nil {
		return nil, err
	}

	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return nil, err
	}

	childID, status, err := s.ensureChildAccount(ctx, email, fullName)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRelation(ctx, caller.UserID, childID, status); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateChildren(ctx, caller.UserID); err != nil {
		s.logger.Warn("children cache invalidation failed",
			slog.String("parent_id", caller.UserID),
			slog.String("error", err.Error()),
		)
	}

	if status == StatusCreated {
		s.logger.Info("child_invited", slog.String("parent_id", caller.UserID), slog.String("child_id", childID))
	} else {
		s.logger.Info("child_linked", slog.String("parent_id", caller.UserID), slog.String("child_id", childID))
	}

	return &InviteResult{Status: status, ChildID: childID}, nil
}

// ensureChildAccount returns the id of the child account for email,
// inviting a new account when none exists yet.
func (s *InvitationService) ensureChildAccount(ctx context.Context, email, fullName string) (string, string, error) {
	account, err := s.directory.InviteUserByEmail(ctx, email, model.ProfileSeed{
		FullName: fullName,
		Role:     model.RoleChild,
	})
	if err == nil {
		return account.ID, StatusCreated, nil
	}
	if !directory.IsAlreadyRegistered(err) {
		return "", "", upstream("failed to invite user: "+err.Error(), err)
	}

	childID, err := s.resolveExisting(ctx, email, fullName)
	if err != nil {
		return "", "", err
	}
	return childID, StatusLinked, nil
}

// resolveExisting finds the account already registered under email.
// An account that cannot be resolved to a child profile is never linked.
func (s *InvitationService) resolveExisting(ctx context.Context, email, fullName string) (string, error) {
	account, err := s.directory.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return "", errUnresolvable()
		}
		return "", upstream("failed to look up existing user", err)
	}

	profile, err := s.profiles.GetProfile(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return "", errUnresolvable()
		}
		return "", upstream("failed to load existing profile", err)
	}

	if profile.Role == model.RoleParent {
		return "", newError(KindInvalidArgument, "this email belongs to a parent account and cannot be added as a child")
	}

	if profile.FullName != fullName {
		if err := s.profiles.UpdateProfileName(ctx, account.ID, fullName); err != nil {
			return "", upstream("failed to update child profile", err)
		}
	}
	return account.ID, nil
}

// ensureRelation links parentID to childID unless they are already linked.
func (s *InvitationService) ensureRelation(ctx context.Context, parentID, childID, status string) error {
	linkFailed := func(err error) error {
		message := "failed to link child account"
		if status == StatusCreated {
			message = "child account was created but linking it failed; retry to link without re-inviting"
		}
		return &Error{Kind: KindUpstream, Message: message, ChildID: childID, Err: err}
	}

	exists, err := s.relations.RelationExists(ctx, parentID, childID)
	if err != nil {
		return linkFailed(err)
	}
	if exists {
		return nil
	}

	err = s.relations.CreateRelation(ctx, &model.ParentChildRelation{
		ParentID:  parentID,
		ChildID:   childID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil && !errors.Is(err, repository.ErrRelationExists) {
		return linkFailed(err)
	}
	return nil
}

func errUnresolvable() *Error {
	return newError(KindNotFound, "this email is already registered but the account could not be found; ask them to sign up first")
}

// validateInviteInput returns the normalized email and trimmed name.
func validateInviteInput(caller *model.Caller, input InviteInput) (string, string, error) {
	email := strings.TrimSpace(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	if email == "" || fullName == "" {
		return "", "", newError(KindInvalidArgument, "email and fullName are required")
	}
	if !isValidEmail(email) {
		return "", "", newError(KindInvalidArgument, "email address is not valid")
	}

	email = model.NormalizeEmail(email)
	if caller.Email != "" && email == model.NormalizeEmail(caller.Email) {
		return "", "", newError(KindInvalidArgument, "you cannot invite yourself")
	}
	return email, fullName, nil
}

func isValidEmail(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Kid <kid@example.com>".
	return addr.Address == email && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".")
}
