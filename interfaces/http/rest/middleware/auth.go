package middleware

import (
	"net"
	"net/http"
	"strings"

	"edubba/pkg/auth"
	"edubba/pkg/common"
	pkgerrors "edubba/pkg/errors"

	"go.uber.org/zap"
)

// RequireWriter admits requests carrying a valid bearer token with the
// writer role. A nil validator turns authentication off, which is only
// allowed outside production.
func RequireWriter(validator *auth.JWTValidator, errHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := validator.ValidateToken(extractToken(r))
			if err != nil {
				logger.Debug("Rejected token", zap.Error(err), zap.String("path", r.URL.Path))
				errHandler.Handle(w, r, pkgerrors.NewUnauthorizedError(err.Error()))
				return
			}
			if !claims.HasRole(auth.RoleWriter) {
				errHandler.Handle(w, r, pkgerrors.NewForbiddenError(auth.RoleWriter))
				return
			}

			ctx := common.WithPrincipal(r.Context(), claims.Subject, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit refuses requests once the client IP exceeds limiter.
func RateLimit(limiter auth.RateLimiter, errHandler *pkgerrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if err != nil {
				errHandler.Handle(w, r, err)
				return
			}
			if !allowed {
				errHandler.Handle(w, r, pkgerrors.NewRateLimitedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

// clientIP relies on chi's RealIP having already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
