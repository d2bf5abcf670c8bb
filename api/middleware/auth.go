package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/meridianops/stockroute-backend/api/responses"
	pkgauth "github.com/meridianops/stockroute-backend/pkg/auth"
	"github.com/meridianops/stockroute-backend/pkg/config"
	pkgerrors "github.com/meridianops/stockroute-backend/pkg/errors"
	"github.com/meridianops/stockroute-backend/pkg/logger"
)

type ctxKey string

const ctxSubject ctxKey = "subject"

// Auth validates a bearer token and seeds the request context with the caller
// identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
			if logg != nil {
				ctx = logg.WithField(ctx, "subject", claims.Subject)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated caller identity, if any.
func SubjectFromContext(ctx context.Context) string {
	if subject, ok := ctx.Value(ctxSubject).(string); ok {
		return subject
	}
	return ""
}
