package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/guardian/guardian/internal/model"
)

// Common errors for safety feed operations.
var (
	ErrAlertNotFound    = errors.New("alert not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrGeofenceNotFound = errors.New("geofence not found")
)

// InsertLocation records a position report and fills in its id.
func (r *Repository) InsertLocation(ctx context.Context, point *model.LocationPoint) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO location_history (child_id, latitude, longitude, battery_level, speed, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		point.ChildID,
		point.Latitude,
		point.Longitude,
		point.Battery,
		point.Speed,
		point.RecordedAt,
	).Scan(&point.ID)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

// CreateAlert inserts an alert.
func (r *Repository) CreateAlert(ctx context.Context, alert *model.Alert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alerts (id, child_id, geofence_id, alert_type, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`,
		alert.ID,
		alert.ChildID,
		alert.GeofenceID,
		string(alert.Type),
		alert.Message,
		alert.IsRead,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// ListAlerts returns the newest alerts raised for any of childIDs.
func (r *Repository) ListAlerts(ctx context.Context, childIDs []string, limit int) ([]*model.Alert, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.child_id, p.full_name, a.geofence_id, a.alert_type, a.message, a.is_read, a.created_at
		FROM alerts a
		JOIN profiles p ON p.id = a.child_id
		WHERE a.child_id = ANY($1)
		ORDER BY a.created_at DESC
		LIMIT $2
	`, pq.Array(childIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]*model.Alert, 0, limit)
	for rows.Next() {
		var (
			alert     model.Alert
			childName *string
			alertType string
			message   *string
		)
		if err := rows.Scan(
			&alert.ID,
			&alert.ChildID,
			&childName,
			&alert.GeofenceID,
			&alertType,
			&message,
			&alert.IsRead,
			&alert.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.ChildName = deref(childName)
		alert.Type = model.AlertType(alertType)
		alert.Message = deref(message)
		alerts = append(alerts, &alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertRead flags an alert as read if it belongs to one of childIDs.
func (r *Repository) MarkAlertRead(ctx context.Context, id string, childIDs []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE alerts SET is_read = true WHERE id = $1 AND child_id = ANY($2)
	`, id, pq.Array(childIDs))
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CreateMessage inserts a quick message.
func (r *Repository) CreateMessage(ctx context.Context, msg *model.QuickMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quick_messages (id, child_id, message, is_read, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.ChildID, msg.Message, msg.IsRead, msg.SentAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListMessages returns the newest quick messages sent by any of childIDs.
func (r *Repository) ListMessages(ctx context.Context, childIDs []string, limit int) ([]*model.QuickMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.child_id, p.full_name, m.message, m.is_read, m.sent_at
		FROM quick_messages m
		JOIN profiles p ON p.id = m.child_id
		WHERE m.child_id = ANY($1)
		ORDER BY m.sent_at DESC
		LIMIT $2
	`, pq.Array(childIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*model.QuickMessage, 0, limit)
	for rows.Next() {
		var (
			msg       model.QuickMessage
			childName *string
		)
		if err := rows.Scan(&msg.ID, &msg.ChildID, &childName, &msg.Message, &msg.IsRead, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.ChildName = deref(childName)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// MarkMessageRead flags a quick message as read if it was sent by one of childIDs.
func (r *Repository) MarkMessageRead(ctx context.Context, id string, childIDs []string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quick_messages SET is_read = true WHERE id = $1 AND child_id = ANY($2)
	`, id, pq.Array(childIDs))
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// CreateGeofence inserts a safe place.
func (r *Repository) CreateGeofence(ctx context.Context, g *model.Geofence) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO geofences (id, parent_id, name, latitude, longitude, radius, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, g.ID, g.ParentID, g.Name, g.Latitude, g.Longitude, g.Radius, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}
	return nil
}

// ListGeofences returns the safe places owned by parentID, newest first.
func (r *Repository) ListGeofences(ctx context.Context, parentID string) ([]*model.Geofence, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, parent_id, name, latitude, longitude, radius, created_at
		FROM geofences
		WHERE parent_id = $1
		ORDER BY created_at DESC
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list geofences: %w", err)
	}
	defer rows.Close()

	fences := make([]*model.Geofence, 0)
	for rows.Next() {
		fence, err := scanGeofence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence: %w", err)
		}
		fences = append(fences, fence)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating geofences: %w", err)
	}
	return fences, nil
}

// DeleteGeofence removes a safe place owned by parentID.
func (r *Repository) DeleteGeofence(ctx context.Context, parentID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM geofences WHERE id = $1 AND parent_id = $2`, id, parentID)
	if err != nil {
		return fmt.Errorf("failed to delete geofence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGeofenceNotFound
	}
	return nil
}

func scanGeofence(row pgx.Row) (*model.Geofence, error) {
	var g model.Geofence
	if err := row.Scan(&g.ID, &g.ParentID, &g.Name, &g.Latitude, &g.Longitude, &g.Radius, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}
