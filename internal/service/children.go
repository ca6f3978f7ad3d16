package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/guardian/guardian/internal/cache"
	"github.com/guardian/guardian/internal/metrics"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

// ChildrenService manages the children linked to a parent.
type ChildrenService struct {
	profiles  ProfileStore
	relations RelationStore
	cache     ChildrenCache
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewChildrenService creates a new ChildrenService.
func NewChildrenService(profiles ProfileStore, relations RelationStore, cache ChildrenCache, recorder metrics.Recorder, logger *slog.Logger) *ChildrenService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChildrenService{
		profiles:  profiles,
		relations: relations,
		cache:     cache,
		metrics:   recorder,
		logger:    logger,
	}
}

// ListChildren returns the caller's children with their last known position.
// Results are served from cache when possible.
func (s *ChildrenService) ListChildren(ctx context.Context, caller *model.Caller) ([]*model.ChildSummary, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return nil, err
	}

	cached, err := s.cache.GetChildren(ctx, caller.UserID)
	if err == nil {
		s.metrics.IncChildrenCacheHit()
		return cached, nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncChildrenCacheMiss()
	} else {
		// Redis trouble: fall through to the database
		s.logger.Warn("children cache read failed", slog.String("error", err.Error()))
	}

	children, err := s.relations.ListChildren(ctx, caller.UserID)
	if err != nil {
		return nil, upstream("failed to list children", err)
	}
	if children == nil {
		children = []*model.ChildSummary{}
	}

	if err := s.cache.SetChildren(ctx, caller.UserID, children); err != nil {
		s.logger.Warn("children cache write failed", slog.String("error", err.Error()))
	}
	return children, nil
}

// RenameChild changes the display name of a linked child.
func (s *ChildrenService) RenameChild(ctx context.Context, caller *model.Caller, childID, fullName string) error {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return err
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return newError(KindInvalidArgument, "fullName is required")
	}

	if err := requireLinked(ctx, s.relations, caller.UserID, childID); err != nil {
		return err
	}

	if err := s.profiles.UpdateProfileName(ctx, childID, fullName); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return errChildNotLinked
		}
		return upstream("failed to rename child", err)
	}

	// Every parent of this child caches the old name.
	parentIDs, err := s.relations.ListParentIDs(ctx, childID)
	if err != nil {
		parentIDs = []string{caller.UserID}
	}
	s.invalidate(ctx, parentIDs...)
	return nil
}

// UnlinkChild removes the caller's link to a child. The child's account
// and profile stay, since other parents may still be linked.
func (s *ChildrenService) UnlinkChild(ctx context.Context, caller *model.Caller, childID string) error {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return err
	}

	if err := s.relations.DeleteRelation(ctx, caller.UserID, childID); err != nil {
		if errors.Is(err, repository.ErrRelationNotFound) {
			return errChildNotLinked
		}
		return upstream("failed to unlink child", err)
	}

	s.logger.Info("child_unlinked", slog.String("parent_id", caller.UserID), slog.String("child_id", childID))
	s.invalidate(ctx, caller.UserID)
	return nil
}

func (s *ChildrenService) invalidate(ctx context.Context, parentIDs ...string) {
	if err := s.cache.InvalidateChildren(ctx, parentIDs...); err != nil {
		s.logger.Warn("children cache invalidation failed", slog.String("error", err.Error()))
	}
}
