package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/guardian/guardian/internal/cache"
	"github.com/guardian/guardian/internal/directory"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

type relationKey struct {
	parentID string
	childID  string
}

// fakeBackend is an in-memory directory and store.
type fakeBackend struct {
	accounts  map[string]*model.Account // by email
	profiles  map[string]*model.Profile
	relations map[relationKey]time.Time
	locations []*model.LocationPoint
	alerts    []*model.Alert
	messages  []*model.QuickMessage
	geofences []*model.Geofence

	nextID      int
	inviteCalls int
	mutations   int

	inviteErr         error
	getUserErr        error
	relationExistsErr error
	createRelationErr error
	// createRelationRace inserts the relation and then reports a conflict,
	// as if a concurrent request won the insert.
	createRelationRace bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts:  make(map[string]*model.Account),
		profiles:  make(map[string]*model.Profile),
		relations: make(map[relationKey]time.Time),
	}
}

func (b *fakeBackend) addAccount(id, email string, role model.Role, fullName string) {
	b.accounts[email] = &model.Account{ID: id, Email: email}
	b.profiles[id] = &model.Profile{ID: id, FullName: fullName, Role: role}
}

func (b *fakeBackend) link(parentID, childID string) {
	b.relations[relationKey{parentID, childID}] = time.Now()
}

func (b *fakeBackend) relationCount() int {
	return len(b.relations)
}

// Directory

func (b *fakeBackend) InviteUserByEmail(ctx context.Context, email string, seed model.ProfileSeed) (*model.Account, error) {
	b.inviteCalls++
	if b.inviteErr != nil {
		return nil, b.inviteErr
	}
	if _, ok := b.accounts[email]; ok {
		return nil, directory.ErrAlreadyRegistered
	}
	b.nextID++
	b.mutations++
	id := fmt.Sprintf("child-%d", b.nextID)
	b.addAccount(id, email, seed.Role, seed.FullName)
	return b.accounts[email], nil
}

func (b *fakeBackend) GetUserByEmail(ctx context.Context, email string) (*model.Account, error) {
	if b.getUserErr != nil {
		return nil, b.getUserErr
	}
	a, ok := b.accounts[email]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return a, nil
}

// ProfileStore

func (b *fakeBackend) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, ok := b.profiles[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (b *fakeBackend) UpdateProfileName(ctx context.Context, id, fullName string) error {
	p, ok := b.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	b.mutations++
	p.FullName = fullName
	return nil
}

// RelationStore

func (b *fakeBackend) RelationExists(ctx context.Context, parentID, childID string) (bool, error) {
	if b.relationExistsErr != nil {
		return false, b.relationExistsErr
	}
	_, ok := b.relations[relationKey{parentID, childID}]
	return ok, nil
}

func (b *fakeBackend) CreateRelation(ctx context.Context, rel *model.ParentChildRelation) error {
	if b.createRelationErr != nil {
		return b.createRelationErr
	}
	key := relationKey{rel.ParentID, rel.ChildID}
	if b.createRelationRace {
		b.relations[key] = rel.CreatedAt
		return repository.ErrRelationExists
	}
	if _, ok := b.relations[key]; ok {
		return repository.ErrRelationExists
	}
	b.mutations++
	b.relations[key] = rel.CreatedAt
	return nil
}

func (b *fakeBackend) DeleteRelation(ctx context.Context, parentID, childID string) error {
	key := relationKey{parentID, childID}
	if _, ok := b.relations[key]; !ok {
		return repository.ErrRelationNotFound
	}
	b.mutations++
	delete(b.relations, key)
	return nil
}

func (b *fakeBackend) ListChildIDs(ctx context.Context, parentID string) ([]string, error) {
	var ids []string
	for key := range b.relations {
		if key.parentID == parentID {
			ids = append(ids, key.childID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (b *fakeBackend) ListParentIDs(ctx context.Context, childID string) ([]string, error) {
	var ids []string
	for key := range b.relations {
		if key.childID == childID {
			ids = append(ids, key.parentID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (b *fakeBackend) ListChildren(ctx context.Context, parentID string) ([]*model.ChildSummary, error) {
	ids, _ := b.ListChildIDs(ctx, parentID)
	children := make([]*model.ChildSummary, 0, len(ids))
	for _, id := range ids {
		summary := &model.ChildSummary{ID: id}
		if p, ok := b.profiles[id]; ok {
			summary.FullName = p.FullName
		}
		children = append(children, summary)
	}
	return children, nil
}

// SafetyStore

func (b *fakeBackend) InsertLocation(ctx context.Context, point *model.LocationPoint) error {
	point.ID = int64(len(b.locations) + 1)
	b.locations = append(b.locations, point)
	return nil
}

func (b *fakeBackend) CreateAlert(ctx context.Context, alert *model.Alert) error {
	b.alerts = append(b.alerts, alert)
	return nil
}

func (b *fakeBackend) ListAlerts(ctx context.Context, childIDs []string, limit int) ([]*model.Alert, error) {
	var out []*model.Alert
	for i := len(b.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		if contains(childIDs, b.alerts[i].ChildID) {
			out = append(out, b.alerts[i])
		}
	}
	return out, nil
}

func (b *fakeBackend) MarkAlertRead(ctx context.Context, id string, childIDs []string) error {
	for _, a := range b.alerts {
		if a.ID == id && contains(childIDs, a.ChildID) {
			a.IsRead = true
			return nil
		}
	}
	return repository.ErrAlertNotFound
}

func (b *fakeBackend) CreateMessage(ctx context.Context, msg *model.QuickMessage) error {
	b.messages = append(b.messages, msg)
	return nil
}

func (b *fakeBackend) ListMessages(ctx context.Context, childIDs []string, limit int) ([]*model.QuickMessage, error) {
	var out []*model.QuickMessage
	for i := len(b.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if contains(childIDs, b.messages[i].ChildID) {
			out = append(out, b.messages[i])
		}
	}
	return out, nil
}

func (b *fakeBackend) MarkMessageRead(ctx context.Context, id string, childIDs []string) error {
	for _, m := range b.messages {
		if m.ID == id && contains(childIDs, m.ChildID) {
			m.IsRead = true
			return nil
		}
	}
	return repository.ErrMessageNotFound
}

func (b *fakeBackend) CreateGeofence(ctx context.Context, g *model.Geofence) error {
	b.geofences = append(b.geofences, g)
	return nil
}

func (b *fakeBackend) ListGeofences(ctx context.Context, parentID string) ([]*model.Geofence, error) {
	var out []*model.Geofence
	for _, g := range b.geofences {
		if g.ParentID == parentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (b *fakeBackend) DeleteGeofence(ctx context.Context, parentID, id string) error {
	for i, g := range b.geofences {
		if g.ID == id && g.ParentID == parentID {
			b.geofences = append(b.geofences[:i], b.geofences[i+1:]...)
			return nil
		}
	}
	return repository.ErrGeofenceNotFound
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// fakeCache is an in-memory ChildrenCache.
type fakeCache struct {
	entries     map[string][]*model.ChildSummary
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]*model.ChildSummary)}
}

func (c *fakeCache) GetChildren(ctx context.Context, parentID string) ([]*model.ChildSummary, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	children, ok := c.entries[parentID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return children, nil
}

func (c *fakeCache) SetChildren(ctx context.Context, parentID string, children []*model.ChildSummary) error {
	c.entries[parentID] = children
	return nil
}

func (c *fakeCache) InvalidateChildren(ctx context.Context, parentIDs ...string) error {
	for _, id := range parentIDs {
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parentCaller() *model.Caller {
	return &model.Caller{UserID: "p1", Email: "parent@example.com"}
}

// newParentBackend returns a backend holding parent p1.
func newParentBackend() *fakeBackend {
	b := newFakeBackend()
	b.addAccount("p1", "parent@example.com", model.RoleParent, "Parent")
	return b
}
