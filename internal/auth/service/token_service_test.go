package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookshare/server/internal/auth/domain"
	authrepo "github.com/bookshare/server/internal/auth/repository"
	commonerrors "github.com/bookshare/server/internal/common/errors"
)

func TestTokenService_Issue_ClearsLoggedOut(t *testing.T) {
	svc, repo, _ := setupTokenService()

	var gotUsername string
	var gotLoggedOut bool
	repo.setLoggedOutFunc = func(ctx context.Context, username string, loggedOut bool) error {
		gotUsername = username
		gotLoggedOut = loggedOut
		return nil
	}

	token, err := svc.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if gotUsername != "alice" {
		t.Errorf("expected logged_out cleared for alice, got %q", gotUsername)
	}
	if gotLoggedOut {
		t.Error("expected logged_out to be set to false on issue")
	}
}

func TestTokenService_Verify_Success(t *testing.T) {
	svc, repo, _ := setupTokenService()

	repo.findByUsernameFunc = func(ctx context.Context, username string) (domain.User, error) {
		return domain.User{Username: username, Password: "pw", LoggedOut: false}, nil
	}

	token, err := svc.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
}

func TestTokenService_Verify_Expired(t *testing.T) {
	svc, repo, clk := setupTokenService()

	repo.findByUsernameFunc = func(ctx context.Context, username string) (domain.User, error) {
		return domain.User{Username: username}, nil
	}

	// Issue a token whose 24h lifetime already elapsed.
	clk.Advance(-25 * time.Hour)
	token, err := svc.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.Verify(context.Background(), token)
	if err == nil {
		t.Fatal("expected error for expired token")
	}
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Code() != "INVALID_TOKEN" {
		t.Errorf("expected INVALID_TOKEN, got %v", err)
	}
}

func TestTokenService_Verify_Garbage(t *testing.T) {
	svc, _, _ := setupTokenService()

	_, err := svc.Verify(context.Background(), "not-a-token")
	if err == nil {
		t.Fatal("expected error for malformed token")
	}
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Code() != "INVALID_TOKEN" {
		t.Errorf("expected INVALID_TOKEN, got %v", err)
	}
}

func TestTokenService_Verify_UnknownUser(t *testing.T) {
	svc, repo, _ := setupTokenService()

	token, err := svc.Issue(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	repo.findByUsernameFunc = func(ctx context.Context, username string) (domain.User, error) {
		return domain.User{}, authrepo.ErrUserNotFound
	}

	_, err = svc.Verify(context.Background(), token)
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Code() != "INVALID_TOKEN" {
		t.Errorf("expected INVALID_TOKEN for unknown user, got %v", err)
	}
}

func TestTokenService_Verify_StoreFailureIsInternal(t *testing.T) {
	svc, repo, _ := setupTokenService()

	token, err := svc.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	repo.findByUsernameFunc = func(ctx context.Context, username string) (domain.User, error) {
		return domain.User{}, errors.New("connection reset")
	}

	// An unreachable store says nothing about the token, so the error must
	// not masquerade as an invalid credential.
	_, err = svc.Verify(context.Background(), token)
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Code() != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}

func TestTokenService_Verify_Revoked(t *testing.T) {
	svc, repo, _ := setupTokenService()

	token, err := svc.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	repo.findByUsernameFunc = func(ctx context.Context, username string) (domain.User, error) {
		return domain.User{Username: username, LoggedOut: true}, nil
	}

	_, err = svc.Verify(context.Background(), token)
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Code() != "TOKEN_REVOKED" {
		t.Errorf("expected TOKEN_REVOKED, got %v", err)
	}
}

func TestTokenService_RevokeThenReissue(t *testing.T) {
	svc, repo, _ := setupTokenService()

	loggedOut := false
	repo.setLoggedOutFunc = func(ctx context.Context, username string, lo bool) error {
		loggedOut = lo
		return nil
	}
	repo.findByUsernameFunc = func(ctx context.Context, username string) (domain.User, error) {
		return domain.User{Username: username, LoggedOut: loggedOut}, nil
	}

	token, err := svc.Issue(context.Background(), "alice")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.Revoke(context.Background(), "alice"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	// The old token stays signed and unexpired but must now be rejected.
	if _, err := svc.Verify(context.Background(), token); err == nil {
		t.Fatal("expected revoked token to be rejected")
	}

	// A new login re-enables verification, including for the old token.
	if _, err := svc.Issue(context.Background(), "alice"); err != nil {
		t.Fatalf("reissue failed: %v", err)
	}
	if _, err := svc.Verify(context.Background(), token); err != nil {
		t.Errorf("expected old token to verify after re-login, got %v", err)
	}
}
