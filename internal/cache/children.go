package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guardian/guardian/internal/model"
)

const (
	childrenKeyPrefix = "children:"

	// DefaultChildrenTTL is the TTL for a cached children list.
	DefaultChildrenTTL = 60 * time.Second
)

// ErrCacheMiss is returned when no entry is cached.
var ErrCacheMiss = errors.New("cache miss")

// childrenKey returns the Redis key holding parentID's children list.
func childrenKey(parentID string) string {
	return childrenKeyPrefix + parentID
}

// GetChildren returns the cached children list of a parent.
// Returns ErrCacheMiss if nothing is cached.
func (c *Cache) GetChildren(ctx context.Context, parentID string) ([]*model.ChildSummary, error) {
	data, err := c.client.Get(ctx, childrenKey(parentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var children []*model.ChildSummary
	if err := json.Unmarshal(data, &children); err != nil {
		// Corrupted entry - drop it and treat as miss
		_ = c.client.Del(ctx, childrenKey(parentID)).Err()
		return nil, ErrCacheMiss
	}
	return children, nil
}

// SetChildren caches a parent's children list.
func (c *Cache) SetChildren(ctx context.Context, parentID string, children []*model.ChildSummary) error {
	data, err := json.Marshal(children)
	if err != nil {
		return fmt.Errorf("marshal children: %w", err)
	}
	if err := c.client.Set(ctx, childrenKey(parentID), data, c.childrenTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateChildren drops the cached children lists of the given parents.
func (c *Cache) InvalidateChildren(ctx context.Context, parentIDs ...string) error {
	if len(parentIDs) == 0 {
		return nil
	}

	keys := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		keys[i] = childrenKey(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
