package cache

import (
	"strings"
	"testing"
)

func TestChildrenKey(t *testing.T) {
	t.Parallel()

	if got := childrenKey("p1"); got != "children:p1" {
		t.Errorf("childrenKey(p1) = %q, want children:p1", got)
	}
	if childrenKey("p1") == childrenKey("p2") {
		t.Error("different parents must not share a cache key")
	}
}

func TestInviteRateLimitKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		parentID string
	}{
		{"uuid", "6f1c2e4a-8d3b-4f6e-9a1c-2b3d4e5f6a7b"},
		{"short", "p1"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key := inviteRateLimitKey(tt.parentID)
			if !strings.HasPrefix(key, rateLimitInvitePrefix) {
				t.Errorf("key %q missing prefix", key)
			}
			// first 8 bytes of SHA256, hex encoded
			if suffix := strings.TrimPrefix(key, rateLimitInvitePrefix); len(suffix) != 16 {
				t.Errorf("hashed suffix length = %d, want 16", len(suffix))
			}
			if tt.parentID != "" && strings.Contains(key, tt.parentID) {
				t.Errorf("key %q must not contain the raw parent id", key)
			}
		})
	}

	if inviteRateLimitKey("p1") != inviteRateLimitKey("p1") {
		t.Error("key derivation must be deterministic")
	}
	if inviteRateLimitKey("p1") == inviteRateLimitKey("p2") {
		t.Error("different parents must not share a bucket")
	}
}
