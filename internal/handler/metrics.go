package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/guardian/guardian/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "guardian_invites_total", "status", snap.InvitesSucceeded)
	writeLabeled(w, "guardian_invite_failures_total", "kind", snap.InvitesFailed)
	writeMetric(w, "guardian_invite_duration_seconds_count %d\n", snap.InviteDurationCount)
	writeMetric(w, "guardian_invite_duration_seconds_sum %.6f\n", float64(snap.InviteDurationTotalNs)/1e9)

	writeMetric(w, "guardian_children_cache_hits_total %d\n", snap.ChildrenCacheHits)
	writeMetric(w, "guardian_children_cache_misses_total %d\n", snap.ChildrenCacheMisses)

	writeLabeled(w, "guardian_alerts_raised_total", "type", snap.AlertsRaised)
	writeMetric(w, "guardian_messages_sent_total %d\n", snap.MessagesSent)
}

// writeLabeled writes one sample per label value, in a stable order.
func writeLabeled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
