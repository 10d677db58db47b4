package jwtverify

import (
	"context"
	"net/http"

	commonerrors "github.com/bookshare/server/internal/common/errors"
	commonhttp "github.com/bookshare/server/internal/common/http"
	"github.com/bookshare/server/internal/common/logger"
)

// Verifier is the session-token check: signature and expiry first, then the
// subject's server-side revocation flag.
type Verifier interface {
	Verify(ctx context.Context, tokenString string) (Claims, error)
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

func Middleware(verifier Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := ExtractTokenFromHeader(r)
			if !ok {
				log.Warnf("auth failed path=%s: missing authorization header", r.URL.Path)
				commonhttp.WriteErrorCode(w, http.StatusUnauthorized, commonhttp.CodeMissingToken,
					commonerrors.ErrMissingToken.Message())
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				log.Warnf("auth failed path=%s: %v", r.URL.Path, err)
				// Domain errors carry their own status: 401 for revoked,
				// 403 for invalid/expired, 500 for verification failures
				// that say nothing about the token.
				if de, ok := commonerrors.AsDomainError(err); ok {
					commonhttp.WriteErrorCode(w, de.HTTPStatus(), de.Code(), de.Message())
					return
				}
				commonhttp.WriteErrorCode(w, http.StatusForbidden, commonhttp.CodeInvalidToken,
					commonerrors.ErrInvalidToken.Message())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
