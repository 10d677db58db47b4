package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	authrepo "github.com/bookshare/server/internal/auth/repository"
	"github.com/bookshare/server/internal/common/clock"
	commonerrors "github.com/bookshare/server/internal/common/errors"
	"github.com/bookshare/server/internal/common/jwtverify"
	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

// TokenService issues and verifies signed session tokens. Signing is
// stateless; revocation is a side-channel check against the credential
// store's logged_out flag, so a logout rejects every previously issued
// token for that user without tracking them individually.
type TokenService struct {
	users  authrepo.Repository
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	log    *logger.Logger
}

func NewTokenService(
	users authrepo.Repository,
	jwtSecret string,
	ttl time.Duration,
	clk clock.Clock,
	log *logger.Logger,
) *TokenService {
	return &TokenService{
		users:  users,
		secret: []byte(jwtSecret),
		ttl:    ttl,
		clock:  clk,
		log:    log,
	}
}

// Issue signs a token for username and re-enables the account: a successful
// login always clears the logged_out flag. Callers must have checked the
// password first.
func (s *TokenService) Issue(ctx context.Context, username string) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"usr": username,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	if err := s.users.SetLoggedOut(ctx, username, false); err != nil {
		return "", err
	}

	metrics.TokensIssued.Inc()
	return tokenString, nil
}

func (s *TokenService) Verify(ctx context.Context, tokenString string) (jwtverify.Claims, error) {
	claims, err := jwtverify.ParseToken(tokenString, s.secret)
	if err != nil {
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return jwtverify.Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}

	user, err := s.users.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, authrepo.ErrUserNotFound) {
			metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
			return jwtverify.Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
		}
		// A store failure says nothing about the token; it must not be
		// reported as an invalid credential.
		metrics.TokenVerificationsTotal.WithLabelValues("error").Inc()
		return jwtverify.Claims{}, commonerrors.ErrInternal.WithCause(err)
	}

	if user.LoggedOut {
		metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
		return jwtverify.Claims{}, commonerrors.ErrTokenRevoked
	}

	metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
	return claims, nil
}

func (s *TokenService) Revoke(ctx context.Context, username string) error {
	if err := s.users.SetLoggedOut(ctx, username, true); err != nil {
		return err
	}
	metrics.TokensRevoked.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"username": username,
		"action":   "token_revoke",
	}).Info("session revoked")
	return nil
}
