package service

import (
	"context"
	"errors"

	authrepo "github.com/bookshare/server/internal/auth/repository"
	commonerrors "github.com/bookshare/server/internal/common/errors"
	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

type AuthService struct {
	users  authrepo.Repository
	tokens *TokenService
	log    *logger.Logger
}

func NewAuthService(users authrepo.Repository, tokens *TokenService, log *logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, authrepo.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			s.log.WithFields(ctx, logger.Fields{
				"username": username,
				"action":   "login_unknown_user",
			}).Warn("login failed: unknown user")
			return "", commonerrors.ErrInvalidCredentials
		}
		return "", err
	}

	// Plaintext comparison against the seeded credential store.
	if user.Password != password {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"username": username,
			"action":   "login_bad_password",
		}).Warn("login failed: bad password")
		return "", commonerrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, username)
	if err != nil {
		return "", err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"action":   "login_success",
	}).Info("login success")
	return token, nil
}

func (s *AuthService) Logout(ctx context.Context, username string) error {
	return s.tokens.Revoke(ctx, username)
}
