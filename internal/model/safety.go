package model

import (
	"errors"
	"time"
)

// AlertType identifies what raised an alert.
type AlertType string

const (
	AlertSOS           AlertType = "SOS"
	AlertGeofenceEnter AlertType = "geofence_enter"
	AlertGeofenceLeave AlertType = "geofence_leave"
	AlertLowBattery    AlertType = "low_battery"
	AlertSpeeding      AlertType = "speeding"
)

// IsValid checks if the alert type is known.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertSOS, AlertGeofenceEnter, AlertGeofenceLeave, AlertLowBattery, AlertSpeeding:
		return true
	}
	return false
}

// Alert is a notification raised for a child and shown to its parents.
type Alert struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"child_id"`
	ChildName  string    `json:"child_name,omitempty"`
	GeofenceID *string   `json:"geofence_id,omitempty"`
	Type       AlertType `json:"alert_type"`
	Message    string    `json:"message,omitempty"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuickMessage is a short status update sent by a child.
type QuickMessage struct {
	ID        string    `json:"id"`
	ChildID   string    `json:"child_id"`
	ChildName string    `json:"child_name,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	SentAt    time.Time `json:"sent_at"`
}

// LocationPoint is one recorded position of a child.
type LocationPoint struct {
	ID         int64     `json:"id"`
	ChildID    string    `json:"child_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Battery    *int      `json:"battery_level,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Geofence is a named circular safe place owned by a parent.
type Geofence struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    float64   `json:"radius"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinate validation errors.
var (
	ErrLatitudeRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeRange = errors.New("longitude must be between -180 and 180")
)

// ValidateCoordinates checks that a latitude/longitude pair is on the globe.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return ErrLatitudeRange
	}
	if lng < -180 || lng > 180 {
		return ErrLongitudeRange
	}
	return nil
}
