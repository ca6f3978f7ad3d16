package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/guardian/guardian/internal/model"
)

const (
	// inviteAudience keeps invitation tokens from being accepted as sessions.
	inviteAudience = "invite"
	purposeInvite  = "invite"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims are the claims carried by an access token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// InviteClaims are the claims carried by an invitation setup link.
type InviteClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// Tokens signs and verifies HS256 tokens with a shared secret.
type Tokens struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// NewTokens creates a Tokens for the given secret and session audience.
func NewTokens(secret, audience string) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		audience: audience,
		now:      time.Now,
	}
}

// VerifySession introspects an access token and returns the caller it names.
func (t *Tokens) VerifySession(raw string) (*model.Caller, error) {
	var claims SessionClaims
	if err := t.parse(raw, t.audience, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &model.Caller{UserID: claims.Subject, Email: claims.Email}, nil
}

// IssueSession signs an access token. The hosted backend normally does this;
// it is used by the bootstrap tool and tests.
func (t *Tokens) IssueSession(userID, email string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  "authenticated",
	}
	return t.sign(claims)
}

// IssueInvite signs the token embedded in an invitation email.
func (t *Tokens) IssueInvite(accountID, email string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := InviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Audience:  jwt.ClaimStrings{inviteAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:   email,
		Purpose: purposeInvite,
	}
	return t.sign(claims)
}

// VerifyInvite checks an invitation token and returns its claims.
func (t *Tokens) VerifyInvite(raw string) (*InviteClaims, error) {
	var claims InviteClaims
	if err := t.parse(raw, inviteAudience, &claims); err != nil {
		return nil, err
	}
	if claims.Purpose != purposeInvite || claims.Subject == "" {
		return nil, fmt.Errorf("%w: not an invitation", ErrInvalidToken)
	}
	return &claims, nil
}

func (t *Tokens) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) parse(raw, audience string, claims jwt.Claims) error {
	if raw == "" {
		return ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
