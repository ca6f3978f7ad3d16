package metrics

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	InvitesSucceeded      map[string]uint64
	InvitesFailed         map[string]uint64
	InviteDurationCount   uint64
	InviteDurationTotalNs int64
	ChildrenCacheHits     uint64
	ChildrenCacheMisses   uint64
	AlertsRaised          map[string]uint64
	MessagesSent          uint64
}

// InMemoryRecorder keeps counters in process memory.
// It backs the /metrics endpoint and is used by tests.
type InMemoryRecorder struct {
	inviteDurationCount   uint64
	inviteDurationTotalNs int64
	childrenCacheHits     uint64
	childrenCacheMisses   uint64
	messagesSent          uint64

	mu               sync.Mutex
	invitesSucceeded map[string]uint64
	invitesFailed    map[string]uint64
	alertsRaised     map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		invitesSucceeded: make(map[string]uint64),
		invitesFailed:    make(map[string]uint64),
		alertsRaised:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	succeeded := maps.Clone(m.invitesSucceeded)
	failed := maps.Clone(m.invitesFailed)
	alerts := maps.Clone(m.alertsRaised)
	m.mu.Unlock()

	return Snapshot{
		InvitesSucceeded:      succeeded,
		InvitesFailed:         failed,
		InviteDurationCount:   atomic.LoadUint64(&m.inviteDurationCount),
		InviteDurationTotalNs: atomic.LoadInt64(&m.inviteDurationTotalNs),
		ChildrenCacheHits:     atomic.LoadUint64(&m.childrenCacheHits),
		ChildrenCacheMisses:   atomic.LoadUint64(&m.childrenCacheMisses),
		AlertsRaised:          alerts,
		MessagesSent:          atomic.LoadUint64(&m.messagesSent),
	}
}

// IncInviteSucceeded increments the successful invitation counter for status.
func (m *InMemoryRecorder) IncInviteSucceeded(status string) {
	m.inc(m.invitesSucceeded, status)
}

// IncInviteFailed increments the failed invitation counter for kind.
func (m *InMemoryRecorder) IncInviteFailed(kind string) {
	m.inc(m.invitesFailed, kind)
}

// ObserveInviteDuration records how long one invitation took.
func (m *InMemoryRecorder) ObserveInviteDuration(duration time.Duration) {
	atomic.AddUint64(&m.inviteDurationCount, 1)
	atomic.AddInt64(&m.inviteDurationTotalNs, duration.Nanoseconds())
}

// IncChildrenCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncChildrenCacheHit() {
	atomic.AddUint64(&m.childrenCacheHits, 1)
}

// IncChildrenCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncChildrenCacheMiss() {
	atomic.AddUint64(&m.childrenCacheMisses, 1)
}

// IncAlertRaised increments the alert counter for alertType.
func (m *InMemoryRecorder) IncAlertRaised(alertType string) {
	m.inc(m.alertsRaised, alertType)
}

// IncMessageSent increments the quick message counter.
func (m *InMemoryRecorder) IncMessageSent() {
	atomic.AddUint64(&m.messagesSent, 1)
}

func (m *InMemoryRecorder) inc(counter map[string]uint64, label string) {
	m.mu.Lock()
	counter[label]++
	m.mu.Unlock()
}
