package service

import (
	"context"
	"io"
	"time"

	"github.com/bookshare/server/internal/auth/domain"
	authrepo "github.com/bookshare/server/internal/auth/repository"
	"github.com/bookshare/server/internal/common/clock"
	"github.com/bookshare/server/internal/common/logger"
)

type mockUserRepository struct {
	findByUsernameFunc func(ctx context.Context, username string) (domain.User, error)
	setLoggedOutFunc   func(ctx context.Context, username string, loggedOut bool) error
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return domain.User{}, authrepo.ErrUserNotFound
}

func (m *mockUserRepository) SetLoggedOut(ctx context.Context, username string, loggedOut bool) error {
	if m.setLoggedOutFunc != nil {
		return m.setLoggedOutFunc(ctx, username, loggedOut)
	}
	return nil
}

const testSecret = "test-secret-key-at-least-32-bytes!!"

func setupTokenService() (*TokenService, *mockUserRepository, *clock.MockClock) {
	repo := &mockUserRepository{}
	// Token expiry is validated against wall-clock time during parsing,
	// so the mock starts at real now and tests rewind it to issue
	// already-expired tokens.
	clk := clock.NewMockClock(time.Now())
	log := logger.New(io.Discard, "test", logger.CRITICAL)
	svc := NewTokenService(repo, testSecret, 24*time.Hour, clk, log)
	return svc, repo, clk
}

func setupAuthService() (*AuthService, *mockUserRepository, *clock.MockClock) {
	tokens, repo, clk := setupTokenService()
	log := logger.New(io.Discard, "test", logger.CRITICAL)
	return NewAuthService(repo, tokens, log), repo, clk
}
