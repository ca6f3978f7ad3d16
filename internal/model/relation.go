package model

import "time"

// ParentChildRelation links a parent to a monitored child.
// At most one row exists per (ParentID, ChildID) pair.
type ParentChildRelation struct {
	ParentID  string    `json:"parent_id"`
	ChildID   string    `json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChildSummary is a linked child together with its last known position.
type ChildSummary struct {
	ID         string     `json:"id"`
	FullName   string     `json:"full_name"`
	AvatarURL  string     `json:"avatar_url,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	Battery    *int       `json:"battery_level,omitempty"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

// HasLocation reports whether a position has ever been recorded.
func (c *ChildSummary) HasLocation() bool {
	return c.Latitude != nil && c.Longitude != nil
}
