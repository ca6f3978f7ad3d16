package service

import (
	"context"
	"time"

	"github.com/guardian/guardian/internal/model"
)

// Directory performs privileged account operations.
type Directory interface {
	InviteUserByEmail(ctx context.Context, email string, seed model.ProfileSeed) (*model.Account, error)
	GetUserByEmail(ctx context.Context, email string) (*model.Account, error)
}

// ProfileStore reads and updates profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfileName(ctx context.Context, id, fullName string) error
}

// RelationStore persists parent/child links.
type RelationStore interface {
	RelationExists(ctx context.Context, parentID, childID string) (bool, error)
	CreateRelation(ctx context.Context, rel *model.ParentChildRelation) error
	DeleteRelation(ctx context.Context, parentID, childID string) error
	ListChildIDs(ctx context.Context, parentID string) ([]string, error)
	ListParentIDs(ctx context.Context, childID string) ([]string, error)
	ListChildren(ctx context.Context, parentID string) ([]*model.ChildSummary, error)
}

// SafetyStore persists locations, alerts, quick messages and geofences.
type SafetyStore interface {
	InsertLocation(ctx context.Context, point *model.LocationPoint) error
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListAlerts(ctx context.Context, childIDs []string, limit int) ([]*model.Alert, error)
	MarkAlertRead(ctx context.Context, id string, childIDs []string) error
	CreateMessage(ctx context.Context, msg *model.QuickMessage) error
	ListMessages(ctx context.Context, childIDs []string, limit int) ([]*model.QuickMessage, error)
	MarkMessageRead(ctx context.Context, id string, childIDs []string) error
	CreateGeofence(ctx context.Context, g *model.Geofence) error
	ListGeofences(ctx context.Context, parentID string) ([]*model.Geofence, error)
	DeleteGeofence(ctx context.Context, parentID, id string) error
}

// AccountStore confirms invited accounts.
type AccountStore interface {
	ConfirmAccount(ctx context.Context, id, credentialHash string, at time.Time) error
}

// ChildrenCache caches children lists per parent.
type ChildrenCache interface {
	GetChildren(ctx context.Context, parentID string) ([]*model.ChildSummary, error)
	SetChildren(ctx context.Context, parentID string, children []*model.ChildSummary) error
	InvalidateChildren(ctx context.Context, parentIDs ...string) error
}
