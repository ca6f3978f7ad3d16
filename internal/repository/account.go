package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/guardian/guardian/internal/model"
)

// Common errors for account repository operations.
var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrEmailExists      = errors.New("email already registered")
	ErrAccountConfirmed = errors.New("account already confirmed")
	ErrProfileNotFound  = errors.New("profile not found")
)

const accountColumns = `id, email, credential_hash, invited_at, confirmed_at, created_at`

// CreateAccount inserts an account and its profile in one transaction.
// If deliver is non-nil it runs after both inserts; the transaction only
// commits when deliver succeeds, so a failed invitation email leaves no account behind.
func (r *Repository) CreateAccount(ctx context.Context, account *model.Account, profile *model.Profile, deliver func(ctx context.Context) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO accounts (id, email, credential_hash, invited_at, confirmed_at, created_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		`,
			account.ID,
			account.Email,
			account.CredentialHash,
			account.InvitedAt,
			account.ConfirmedAt,
			account.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailExists
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO profiles (id, full_name, avatar_url, user_role, updated_at)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		`,
			profile.ID,
			profile.FullName,
			profile.AvatarURL,
			string(profile.Role),
			profile.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		if deliver != nil {
			return deliver(ctx)
		}
		return nil
	})
}

// RenewInvitation moves invited_at of an unconfirmed account from prev to at
// and runs deliver in the same transaction. It reports false without calling
// deliver when the account was confirmed or renewed concurrently.
func (r *Repository) RenewInvitation(ctx context.Context, id string, prev *time.Time, at time.Time, deliver func(ctx context.Context) error) (bool, error) {
	renewed := false
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts
			SET invited_at = $3
			WHERE id = $1 AND confirmed_at IS NULL AND invited_at IS NOT DISTINCT FROM $2
		`, id, prev, at)
		if err != nil {
			return fmt.Errorf("failed to renew invitation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		renewed = true
		if deliver != nil {
			return deliver(ctx)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return renewed, nil
}

// GetAccountByEmail retrieves an account by its (case-insensitive) email.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID: %w", err)
	}
	return account, nil
}

// ConfirmAccount stores the credential hash of an invited account.
// Returns ErrAccountConfirmed if a credential was already set.
func (r *Repository) ConfirmAccount(ctx context.Context, id, credentialHash string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET credential_hash = $2, confirmed_at = $3
		WHERE id = $1 AND confirmed_at IS NULL
	`, id, credentialHash, at)
	if err != nil {
		return fmt.Errorf("failed to confirm account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := r.GetAccountByID(ctx, id); err != nil {
			return err
		}
		return ErrAccountConfirmed
	}
	return nil
}

// GetProfile retrieves the profile of an account.
func (r *Repository) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var (
		profile   model.Profile
		fullName  *string
		avatarURL *string
		role      string
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, avatar_url, user_role, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(&profile.ID, &fullName, &avatarURL, &role, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.FullName = deref(fullName)
	profile.AvatarURL = deref(avatarURL)
	profile.Role = model.Role(role)
	return &profile, nil
}

// UpdateProfileName sets a profile's display name.
func (r *Repository) UpdateProfileName(ctx context.Context, id, fullName string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles SET full_name = $2, updated_at = now() WHERE id = $1
	`, id, fullName)
	if err != nil {
		return fmt.Errorf("failed to update profile name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		account model.Account
		hash    *string
	)
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&hash,
		&account.InvitedAt,
		&account.ConfirmedAt,
		&account.CreatedAt,
	); err != nil {
		return nil, err
	}
	account.CredentialHash = deref(hash)
	return &account, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
