// Package directory provides the privileged account operations the
// invitation flow depends on: inviting a new account by email and looking
// up an existing account by email.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/guardian/guardian/internal/mail"
	"github.com/guardian/guardian/internal/model"
	"github.com/guardian/guardian/internal/repository"
)

// Directory errors.
var (
	ErrAlreadyRegistered = errors.New("a user with this email address has already been registered")
	ErrUserNotFound      = errors.New("user not found")
)

// DefaultInviteTTL is how long an invitation link stays valid.
const DefaultInviteTTL = 72 * time.Hour

// IsAlreadyRegistered reports whether err means the invited email already
// belongs to an account. This is the only place that classification happens.
func IsAlreadyRegistered(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered)
}

// AccountStore is the persistence the directory needs.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account, profile *model.Profile, deliver func(ctx context.Context) error) error
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	RenewInvitation(ctx context.Context, id string, prev *time.Time, at time.Time, deliver func(ctx context.Context) error) (bool, error)
}

// InvitationSender delivers invitation emails.
type InvitationSender interface {
	SendInvitation(ctx context.Context, inv mail.Invitation) error
}

// InviteIssuer signs invitation tokens.
type InviteIssuer interface {
	IssueInvite(accountID, email string, ttl time.Duration) (string, error)
}

// Directory implements the privileged account operations.
type Directory struct {
	store     AccountStore
	mailer    InvitationSender
	tokens    InviteIssuer
	inviteTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New creates a Directory.
func New(store AccountStore, mailer InvitationSender, tokens InviteIssuer, inviteTTL time.Duration, logger *slog.Logger) *Directory {
	if inviteTTL <= 0 {
		inviteTTL = DefaultInviteTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		store:     store,
		mailer:    mailer,
		tokens:    tokens,
		inviteTTL: inviteTTL,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// InviteUserByEmail creates an unconfirmed account with a profile built from
// seed and emails the invitee a link to finish setting it up.
// The account is only persisted if the email was handed to the mail provider.
// Returns ErrAlreadyRegistered if the email already belongs to an account.
// An unconfirmed account whose link has expired gets a fresh link first;
// one with a link still valid gets no second email.
func (d *Directory) InviteUserByEmail(ctx context.Context, email string, seed model.ProfileSeed) (*model.Account, error) {
	email = model.NormalizeEmail(email)
	now := d.now().UTC()

	account := &model.Account{
		ID:        d.newID(),
		Email:     email,
		InvitedAt: &now,
		CreatedAt: now,
	}
	profile := &model.Profile{
		ID:        account.ID,
		FullName:  seed.FullName,
		Role:      seed.Role,
		UpdatedAt: now,
	}

	delivered := false
	deliver := func(ctx context.Context) error {
		if err := d.sendInvitation(ctx, account, seed.FullName); err != nil {
			return err
		}
		delivered = true
		return nil
	}

	if err := d.store.CreateAccount(ctx, account, profile, deliver); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			if err := d.renewExpiredInvitation(ctx, email, seed); err != nil {
				return nil, err
			}
			return nil, ErrAlreadyRegistered
		}
		if delivered {
			d.logUndeliverableLink(account, err)
		}
		return nil, err
	}

	d.logger.Info("account_invited",
		slog.String("account_id", account.ID),
		slog.String("role", string(seed.Role)),
	)
	return account, nil
}

// renewExpiredInvitation re-sends the invitation of a pending account whose
// link is no longer valid and moves its invited_at forward. Accounts of
// another role are left alone.
func (d *Directory) renewExpiredInvitation(ctx context.Context, email string, seed model.ProfileSeed) error {
	account, err := d.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up pending invitation: %w", err)
	}

	now := d.now().UTC()
	if account.IsConfirmed() || !d.linkExpired(account, now) {
		return nil
	}

	profile, err := d.store.GetProfile(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load pending profile: %w", err)
	}
	if profile.Role != seed.Role {
		return nil
	}

	delivered := false
	renewed, err := d.store.RenewInvitation(ctx, account.ID, account.InvitedAt, now, func(ctx context.Context) error {
		if err := d.sendInvitation(ctx, account, seed.FullName); err != nil {
			return err
		}
		delivered = true
		return nil
	})
	if err != nil {
		if delivered {
			d.logUndeliverableLink(account, err)
		}
		return fmt.Errorf("failed to renew invitation: %w", err)
	}
	if renewed {
		d.logger.Info("invitation_renewed", slog.String("account_id", account.ID))
	}
	return nil
}

// linkExpired reports whether the last link sent to account is no longer valid.
func (d *Directory) linkExpired(account *model.Account, now time.Time) bool {
	if account.InvitedAt == nil {
		return true
	}
	return !now.Before(account.InvitedAt.Add(d.inviteTTL))
}

func (d *Directory) sendInvitation(ctx context.Context, account *model.Account, childName string) error {
	token, err := d.tokens.IssueInvite(account.ID, account.Email, d.inviteTTL)
	if err != nil {
		return fmt.Errorf("failed to issue invite token: %w", err)
	}
	if err := d.mailer.SendInvitation(ctx, mail.Invitation{
		ToEmail:   account.Email,
		ChildName: childName,
		Token:     token,
	}); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	return nil
}

// logUndeliverableLink records an email that went out for a transaction that
// did not commit. The link in it points at an account that does not exist.
func (d *Directory) logUndeliverableLink(account *model.Account, err error) {
	d.logger.Error("invitation_sent_without_account",
		slog.String("account_id", account.ID),
		slog.String("error", err.Error()),
	)
}

// GetUserByEmail looks up an account by email.
// Returns ErrUserNotFound if no account uses the address.
func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := d.store.GetAccountByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return account, nil
}
