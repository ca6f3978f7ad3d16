// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Role is the profile role of an account.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleParent || r == RoleChild
}

// Account is an authentication identity.
type Account struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	CredentialHash string     `json:"-"` // Never serialize
	InvitedAt      *time.Time `json:"invited_at,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsConfirmed returns true once the account holder has set a credential.
func (a *Account) IsConfirmed() bool {
	return a.ConfirmedAt != nil
}

// Profile is the one-to-one public record of an account.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"user_role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileSeed is the metadata attached to an invitation and used to
// pre-fill the invited account's profile.
type ProfileSeed struct {
	FullName string
	Role     Role
}

// NormalizeEmail lower-cases and trims an email address.
// Accounts are keyed by the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
