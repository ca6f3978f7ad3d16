// Command bootstrap-parent creates a confirmed parent account and prints a
// session token for it, so a fresh deployment can be exercised end to end.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

type output struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Created   bool   `json:"created"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

func main() {
	var (
		databaseURL = pflag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		jwtSecret   = pflag.String("jwt-secret", os.Getenv("JWT_SECRET"), "HS256 secret used by the API")
		audience    = pflag.String("audience", "authenticated", "session token audience")
		email       = pflag.String("email", "parent@guardian.local", "parent email")
		fullName    = pflag.String("name", "Guardian Parent", "parent display name")
		password    = pflag.String("password", "", "parent password (required when creating)")
		ttl         = pflag.Duration("ttl", 24*time.Hour, "session token lifetime")
		format      = pflag.StringP("format", "f", "plain", "output format: plain or json")
	)
	pflag.Parse()

	if *databaseURL == "" || *jwtSecret == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL and JWT_SECRET are required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	account, created, err := ensureParent(ctx, repo, model.NormalizeEmail(*email), strings.TrimSpace(*fullName), *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	token, err := auth.NewTokens(*jwtSecret, *audience).IssueSession(account.ID, account.Email, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue session:", err)
		os.Exit(1)
	}

	out := output{
		AccountID: account.ID,
		Email:     account.Email,
		Created:   created,
		Token:     token,
		ExpiresAt: time.Now().Add(*ttl).UTC().Format(time.RFC3339),
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Token)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureParent returns the parent account for email, creating it if needed.
func ensureParent(ctx context.Context, repo *repository.Repository, email, fullName, password string) (*model.Account, bool, error) {
	existing, err := repo.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		profile, err := repo.GetProfile(ctx, existing.ID)
		if err != nil {
			return nil, false, fmt.Errorf("load profile of %s: %w", email, err)
		}
		if profile.Role != model.RoleParent {
			return nil, false, fmt.Errorf("%s is registered as a %s account", email, profile.Role)
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrAccountNotFound):
		return nil, false, fmt.Errorf("look up %s: %w", email, err)
	}

	if len(password) < auth.MinPasswordLength {
		return nil, false, fmt.Errorf("--password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashCredential(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &model.Account{
		ID:             uuid.NewString(),
		Email:          email,
		CredentialHash: hash,
		ConfirmedAt:    &now,
		CreatedAt:      now,
	}
	profile := &model.Profile{
		ID:        account.ID,
		FullName:  fullName,
		Role:      model.RoleParent,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(ctx, account, profile, nil); err != nil {
		return nil, false, fmt.Errorf("create account: %w", err)
	}
	return account, true, nil
}
