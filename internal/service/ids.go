package service

import "github.com/oklog/ulid/v2"

// newID returns a sortable unique ID for geofences, alerts and messages.
func newID() string {
	return ulid.Make().String()
}
