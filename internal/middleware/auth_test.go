package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guardian/guardian/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuth(t *testing.T) {
	tokens := auth.NewTokens(testSecret, "authenticated")
	valid, err := tokens.IssueSession("p1", "parent@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := tokens.IssueSession("p1", "parent@example.com", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	invite, err := tokens.IssueInvite("c1", "kid@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "p1"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "p1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized, ""},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"invitation token", "Bearer " + invite, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = auth.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			h := Auth(AuthConfig{Logger: discardLogger(), Verifier: tokens})(next)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/children", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotUser != tt.wantUser {
				t.Errorf("caller = %q, want %q", gotUser, tt.wantUser)
			}

			if tt.wantStatus == http.StatusUnauthorized {
				var body errorBody
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body.ErrorKind != "Unauthenticated" || body.Message == "" {
					t.Errorf("unexpected error body: %+v", body)
				}
			}
		})
	}
}
