package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guardian/guardian/internal/auth"
	"github.com/guardian/guardian/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeAccounts struct {
	hashes    map[string]string
	confirmed map[string]bool
	err       error
}

func (a *fakeAccounts) ConfirmAccount(ctx context.Context, id, credentialHash string, at time.Time) error {
	if a.err != nil {
		return a.err
	}
	if _, ok := a.hashes[id]; !ok {
		return repository.ErrAccountNotFound
	}
	if a.confirmed[id] {
		return repository.ErrAccountConfirmed
	}
	a.hashes[id] = credentialHash
	a.confirmed[id] = true
	return nil
}

func newAcceptanceFixture(t *testing.T) (*auth.Tokens, *fakeAccounts, *AcceptanceService) {
	t.Helper()
	tokens := auth.NewTokens(testSecret, "authenticated")
	accounts := &fakeAccounts{
		hashes:    map[string]string{"c1": ""},
		confirmed: map[string]bool{},
	}
	return tokens, accounts, NewAcceptanceService(tokens, accounts, discardLogger())
}

func TestAccept(t *testing.T) {
	tokens, accounts, svc := newAcceptanceFixture(t)

	token, err := tokens.IssueInvite("c1", "kid@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	id, err := svc.Accept(context.Background(), AcceptInput{Token: token, Password: "correct horse"})
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if id != "c1" {
		t.Errorf("account id = %q, want c1", id)
	}

	ok, err := auth.VerifyCredential("correct horse", accounts.hashes["c1"])
	if err != nil || !ok {
		t.Errorf("stored hash does not verify: ok=%v err=%v", ok, err)
	}

	_, err = svc.Accept(context.Background(), AcceptInput{Token: token, Password: "correct horse"})
	requireKind(t, err, KindConflict)
}

func TestAccept_Rejects(t *testing.T) {
	tokens, _, svc := newAcceptanceFixture(t)

	valid, err := tokens.IssueInvite("c1", "kid@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	session, err := tokens.IssueSession("c1", "kid@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := tokens.IssueInvite("c1", "kid@example.com", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	unknown, err := tokens.IssueInvite("nobody", "nobody@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input AcceptInput
		want  Kind
	}{
		{"missing token", AcceptInput{Password: "long enough"}, KindInvalidArgument},
		{"missing password", AcceptInput{Token: valid}, KindInvalidArgument},
		{"short password", AcceptInput{Token: valid, Password: "short"}, KindInvalidArgument},
		{"garbage token", AcceptInput{Token: "not.a.jwt", Password: "long enough"}, KindInvalidArgument},
		{"session token", AcceptInput{Token: session, Password: "long enough"}, KindInvalidArgument},
		{"expired token", AcceptInput{Token: expired, Password: "long enough"}, KindInvalidArgument},
		{"deleted account", AcceptInput{Token: unknown, Password: "long enough"}, KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Accept(context.Background(), tt.input)
			requireKind(t, err, tt.want)
		})
	}
}

func TestAccept_StoreFailure(t *testing.T) {
	tokens, accounts, svc := newAcceptanceFixture(t)
	accounts.err = errors.New("connection refused")

	token, err := tokens.IssueInvite("c1", "kid@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Accept(context.Background(), AcceptInput{Token: token, Password: "long enough"})
	requireKind(t, err, KindUpstream)
}
