package service

import (
	"context"
	"errors"

	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

// requireRole loads the caller's profile and checks its role.
func requireRole(ctx context.Context, profiles ProfileStore, caller *model.Caller, role model.Role) (*model.Profile, error) {
	if caller == nil || caller.UserID == "" {
		return nil, errUnauthenticated
	}

	profile, err := profiles.GetProfile(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, forbiddenFor(role)
		}
		return nil, upstream("failed to load caller profile", err)
	}
	if profile.Role != role {
		return nil, forbiddenFor(role)
	}
	return profile, nil
}

func forbiddenFor(role model.Role) *Error {
	if role == model.RoleChild {
		return errChildOnly
	}
	return errParentOnly
}

// requireLinked checks that parentID monitors childID.
func requireLinked(ctx context.Context, relations RelationStore, parentID, childID string) error {
	linked, err := relations.RelationExists(ctx, parentID, childID)
	if err != nil {
		return upstream("failed to check relation", err)
	}
	if !linked {
		return errChildNotLinked
	}
	return nil
}
