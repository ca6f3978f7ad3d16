// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Invitation flow metrics
	IncInviteSucceeded(status string) // status: "created" or "linked"
	IncInviteFailed(kind string)
	ObserveInviteDuration(duration time.Duration)

	// Children list cache
	IncChildrenCacheHit()
	IncChildrenCacheMiss()

	// Safety feed
	IncAlertRaised(alertType string)
	IncMessageSent()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
