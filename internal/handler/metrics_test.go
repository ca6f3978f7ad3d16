package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/guardian/guardian/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	rec := metrics.NewInMemory()
	rec.IncInviteSucceeded("linked")
	rec.IncInviteSucceeded("created")
	rec.IncInviteFailed("NotFound")
	rec.IncAlertRaised("SOS")
	rec.IncChildrenCacheHit()

	h := NewMetricsHandler(rec)
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		`guardian_invites_total{status="created"} 1`,
		`guardian_invites_total{status="linked"} 1`,
		`guardian_invite_failures_total{kind="NotFound"} 1`,
		`guardian_alerts_raised_total{type="SOS"} 1`,
		`guardian_children_cache_hits_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}

	if strings.Index(body, `status="created"`) > strings.Index(body, `status="linked"`) {
		t.Error("labeled samples should be sorted")
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	h := NewMetricsHandler(nil)
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}
