package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func fixedTokens(now time.Time) *Tokens {
	tokens := NewTokens(testSecret, "authenticated")
	tokens.now = func() time.Time { return now }
	return tokens
}

func TestTokens_SessionRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := fixedTokens(now)

	raw, err := tokens.IssueSession("p1", "parent@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	caller, err := tokens.VerifySession(raw)
	if err != nil {
		t.Fatalf("VerifySession failed: %v", err)
	}

	if caller.UserID != "p1" {
		t.Errorf("expected user p1, got %s", caller.UserID)
	}
	if caller.Email != "parent@example.com" {
		t.Errorf("expected parent@example.com, got %s", caller.Email)
	}
}

func TestTokens_SessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := fixedTokens(now).IssueSession("p1", "", time.Minute)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	_, err = fixedTokens(now.Add(2 * time.Minute)).VerifySession(raw)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokens_SessionRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := fixedTokens(now)

	other := NewTokens("ffffffffffffffffffffffffffffffff", "authenticated")
	other.now = tokens.now
	foreign, _ := other.IssueSession("p1", "", time.Hour)

	wrongAud := NewTokens(testSecret, "service_role")
	wrongAud.now = tokens.now
	service, _ := wrongAud.IssueSession("p1", "", time.Hour)

	invite, _ := tokens.IssueInvite("c1", "kid@example.com", time.Hour)

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "p1",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := tokens.sign(SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})

	noExpiry, _ := tokens.sign(SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:  "p1",
		Audience: jwt.ClaimStrings{"authenticated"},
	}})

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong secret", foreign},
		{"wrong audience", service},
		{"invite token", invite},
		{"none algorithm", noneAlg},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.VerifySession(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokens_InviteRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := fixedTokens(now)

	raw, err := tokens.IssueInvite("c1", "kid@example.com", 72*time.Hour)
	if err != nil {
		t.Fatalf("IssueInvite failed: %v", err)
	}
	if strings.Count(raw, ".") != 2 {
		t.Fatalf("expected compact JWT, got %s", raw)
	}

	claims, err := tokens.VerifyInvite(raw)
	if err != nil {
		t.Fatalf("VerifyInvite failed: %v", err)
	}
	if claims.Subject != "c1" || claims.Email != "kid@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	session, _ := tokens.IssueSession("p1", "", time.Hour)
	if _, err := tokens.VerifyInvite(session); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("session token must not verify as invite, got %v", err)
	}

	if _, err := fixedTokens(now.Add(73 * time.Hour)).VerifyInvite(raw); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
