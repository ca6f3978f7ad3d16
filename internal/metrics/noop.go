package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncInviteSucceeded is a no-op.
func (n *NoopRecorder) IncInviteSucceeded(status string) {}

// IncInviteFailed is a no-op.
func (n *NoopRecorder) IncInviteFailed(kind string) {}

// ObserveInviteDuration is a no-op.
func (n *NoopRecorder) ObserveInviteDuration(duration time.Duration) {}

// IncChildrenCacheHit is a no-op.
func (n *NoopRecorder) IncChildrenCacheHit() {}

// IncChildrenCacheMiss is a no-op.
func (n *NoopRecorder) IncChildrenCacheMiss() {}

// IncAlertRaised is a no-op.
func (n *NoopRecorder) IncAlertRaised(alertType string) {}

// IncMessageSent is a no-op.
func (n *NoopRecorder) IncMessageSent() {}
