// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/guardian/guardian/internal/model"
)

// ErrorResponse is the body of every failed request.
// ChildID is set when a child account exists although linking it failed.
type ErrorResponse struct {
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
	ChildID   string `json:"childId,omitempty"`
}

// InviteChildRequest represents the request body for inviting a child.
type InviteChildRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// InviteChildResponse reports the outcome of an invitation.
type InviteChildResponse struct {
	Status  string `json:"status"`
	ChildID string `json:"childId"`
}

// RenameChildRequest represents the request body for renaming a child.
type RenameChildRequest struct {
	FullName string `json:"fullName"`
}

// ChildResponse represents a linked child in API responses.
type ChildResponse struct {
	ID           string        `json:"id"`
	FullName     string        `json:"fullName"`
	AvatarURL    string        `json:"avatarUrl,omitempty"`
	LastLocation *LocationView `json:"lastLocation,omitempty"`
}

// LocationView is a recorded position.
type LocationView struct {
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	BatteryLevel *int      `json:"batteryLevel,omitempty"`
	Speed        *float64  `json:"speed,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// ToChildResponse converts a child summary to its API form.
func ToChildResponse(c *model.ChildSummary) ChildResponse {
	resp := ChildResponse{
		ID:        c.ID,
		FullName:  c.FullName,
		AvatarURL: c.AvatarURL,
	}
	if c.HasLocation() {
		loc := &LocationView{
			Latitude:     *c.Latitude,
			Longitude:    *c.Longitude,
			BatteryLevel: c.Battery,
		}
		if c.RecordedAt != nil {
			loc.RecordedAt = *c.RecordedAt
		}
		resp.LastLocation = loc
	}
	return resp
}

// AlertResponse represents an alert in API responses.
type AlertResponse struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"childId"`
	ChildName  string    `json:"childName,omitempty"`
	GeofenceID *string   `json:"geofenceId,omitempty"`
	AlertType  string    `json:"alertType"`
	Message    string    `json:"message,omitempty"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToAlertResponse converts an alert to its API form.
func ToAlertResponse(a *model.Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		ChildID:    a.ChildID,
		ChildName:  a.ChildName,
		GeofenceID: a.GeofenceID,
		AlertType:  string(a.Type),
		Message:    a.Message,
		IsRead:     a.IsRead,
		CreatedAt:  a.CreatedAt,
	}
}

// SOSRequest represents the request body of an SOS alert.
type SOSRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// MessageRequest represents the request body for sending a quick message.
// Coordinates are optional and are appended to the message when given.
type MessageRequest struct {
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// MessageResponse represents a quick message in API responses.
type MessageResponse struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"childId"`
	ChildName string    `json:"childName,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	SentAt    time.Time `json:"sentAt"`
}

// ToMessageResponse converts a quick message to its API form.
func ToMessageResponse(m *model.QuickMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ChildID:   m.ChildID,
		ChildName: m.ChildName,
		Message:   m.Message,
		IsRead:    m.IsRead,
		SentAt:    m.SentAt,
	}
}

// LocationRequest represents a position report.
// Latitude and longitude are required.
type LocationRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	BatteryLevel *int     `json:"batteryLevel,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`
}

// LocationResponse reports a stored position and any alert it raised.
type LocationResponse struct {
	ID       int64          `json:"id"`
	Location LocationView   `json:"location"`
	Alert    *AlertResponse `json:"alert,omitempty"`
}

// GeofenceRequest represents the request body for creating a geofence.
type GeofenceRequest struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius,omitempty"`
}

// GeofenceResponse represents a geofence in API responses.
type GeofenceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    float64   `json:"radius"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToGeofenceResponse converts a geofence to its API form.
func ToGeofenceResponse(g *model.Geofence) GeofenceResponse {
	return GeofenceResponse{
		ID:        g.ID,
		Name:      g.Name,
		Latitude:  g.Latitude,
		Longitude: g.Longitude,
		Radius:    g.Radius,
		CreatedAt: g.CreatedAt,
	}
}

// AcceptInvitationRequest completes an invited account.
type AcceptInvitationRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AcceptInvitationResponse confirms an accepted invitation.
type AcceptInvitationResponse struct {
	Status    string `json:"status"`
	AccountID string `json:"accountId"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}
