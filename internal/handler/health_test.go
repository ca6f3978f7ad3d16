package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil).Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name         string
		db, cache    HealthChecker
		wantStatus   int
		wantBody     string
		wantPostgres string
		wantRedis    string
	}{
		{"all healthy", &stubPinger{}, &stubPinger{}, http.StatusOK, "ok", "ok", "ok"},
		{"postgres down", &stubPinger{err: errors.New("connection refused")}, &stubPinger{}, http.StatusServiceUnavailable, "unhealthy", "error: connection refused", "ok"},
		{"redis down", &stubPinger{}, &stubPinger{err: errors.New("i/o timeout")}, http.StatusServiceUnavailable, "unhealthy", "ok", "error: i/o timeout"},
		{"nothing wired", nil, nil, http.StatusOK, "ok", "not configured", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.db, tt.cache).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantBody)
			}
			if resp.Checks["postgres"] != tt.wantPostgres || resp.Checks["redis"] != tt.wantRedis {
				t.Errorf("unexpected checks: %v", resp.Checks)
			}
		})
	}
}
