package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/guardian/guardian/internal/model"
)

// Common errors for relation repository operations.
var (
	ErrRelationExists   = errors.New("relation already exists")
	ErrRelationNotFound = errors.New("relation not found")
)

// RelationExists reports whether parentID already monitors childID.
func (r *Repository) RelationExists(ctx context.Context, parentID, childID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM parent_child_relations WHERE parent_id = $1 AND child_id = $2
		)
	`, parentID, childID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check relation: %w", err)
	}
	return exists, nil
}

// CreateRelation links a parent to a child.
// Returns ErrRelationExists if the pair is already linked.
func (r *Repository) CreateRelation(ctx context.Context, rel *model.ParentChildRelation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO parent_child_relations (parent_id, child_id, created_at)
		VALUES ($1, $2, $3)
	`, rel.ParentID, rel.ChildID, rel.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRelationExists
		}
		return fmt.Errorf("failed to create relation: %w", err)
	}
	return nil
}

// DeleteRelation unlinks a parent from a child.
func (r *Repository) DeleteRelation(ctx context.Context, parentID, childID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM parent_child_relations WHERE parent_id = $1 AND child_id = $2
	`, parentID, childID)
	if err != nil {
		return fmt.Errorf("failed to delete relation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRelationNotFound
	}
	return nil
}

// ListChildIDs returns the ids of every child linked to parentID.
func (r *Repository) ListChildIDs(ctx context.Context, parentID string) ([]string, error) {
	return r.listIDs(ctx, `
		SELECT child_id FROM parent_child_relations WHERE parent_id = $1 ORDER BY created_at
	`, parentID)
}

// ListParentIDs returns the ids of every parent monitoring childID.
func (r *Repository) ListParentIDs(ctx context.Context, childID string) ([]string, error) {
	return r.listIDs(ctx, `
		SELECT parent_id FROM parent_child_relations WHERE child_id = $1
	`, childID)
}

// ListChildren returns the linked children of parentID with their latest location.
func (r *Repository) ListChildren(ctx context.Context, parentID string) ([]*model.ChildSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.full_name, p.avatar_url, l.latitude, l.longitude, l.battery_level, l.recorded_at
		FROM parent_child_relations rel
		JOIN profiles p ON p.id = rel.child_id
		LEFT JOIN LATERAL (
			SELECT latitude, longitude, battery_level, recorded_at
			FROM location_history
			WHERE child_id = rel.child_id
			ORDER BY recorded_at DESC
			LIMIT 1
		) l ON true
		WHERE rel.parent_id = $1
		ORDER BY rel.created_at
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	children := make([]*model.ChildSummary, 0)
	for rows.Next() {
		var (
			child     model.ChildSummary
			fullName  *string
			avatarURL *string
		)
		if err := rows.Scan(
			&child.ID,
			&fullName,
			&avatarURL,
			&child.Latitude,
			&child.Longitude,
			&child.Battery,
			&child.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		child.FullName = deref(fullName)
		child.AvatarURL = deref(avatarURL)
		children = append(children, &child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating children: %w", err)
	}
	return children, nil
}

func (r *Repository) listIDs(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}
	return ids, nil
}
