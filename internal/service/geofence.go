package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

// DefaultGeofenceRadius is the radius in metres used when none is given.
const DefaultGeofenceRadius = 100.0

// GeofenceInput defines input for creating a geofence.
type GeofenceInput struct {
	Name      string
	Latitude  float64
	Longitude float64
	Radius    *float64
}

// GeofenceService manages a parent's safe places.
type GeofenceService struct {
	profiles ProfileStore
	store    SafetyStore
	now      func() time.Time
}

// NewGeofenceService creates a new GeofenceService.
func NewGeofenceService(profiles ProfileStore, store SafetyStore) *GeofenceService {
	return &GeofenceService{
		profiles: profiles,
		store:    store,
		now:      time.Now,
	}
}

// ListGeofences returns the caller's geofences.
func (s *GeofenceService) ListGeofences(ctx context.Context, caller *model.Caller) ([]*model.Geofence, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return nil, err
	}

	geofences, err := s.store.ListGeofences(ctx, caller.UserID)
	if err != nil {
		return nil, upstream("failed to list geofences", err)
	}
	if geofences == nil {
		geofences = []*model.Geofence{}
	}
	return geofences, nil
}

// CreateGeofence adds a safe place for the caller.
func (s *GeofenceService) CreateGeofence(ctx context.Context, caller *model.Caller, input GeofenceInput) (*model.Geofence, error) {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newError(KindInvalidArgument, "name is required")
	}
	if err := model.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, newError(KindInvalidArgument, err.Error())
	}

	radius := DefaultGeofenceRadius
	if input.Radius != nil {
		radius = *input.Radius
	}
	if radius <= 0 {
		return nil, newError(KindInvalidArgument, "radius must be greater than 0")
	}

	g := &model.Geofence{
		ID:        newID(),
		ParentID:  caller.UserID,
		Name:      name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Radius:    radius,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateGeofence(ctx, g); err != nil {
		return nil, upstream("failed to create geofence", err)
	}
	return g, nil
}

// DeleteGeofence removes one of the caller's geofences.
func (s *GeofenceService) DeleteGeofence(ctx context.Context, caller *model.Caller, id string) error {
	if _, err := requireRole(ctx, s.profiles, caller, model.RoleParent); err != nil {
		return err
	}

	if err := s.store.DeleteGeofence(ctx, caller.UserID, id); err != nil {
		if errors.Is(err, repository.ErrGeofenceNotFound) {
			return newError(KindNotFound, "geofence not found")
		}
		return upstream("failed to delete geofence", err)
	}
	return nil
}
