package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/harborline/cruisebook-backend/api/responses"
	pkgauth "github.com/harborline/cruisebook-backend/pkg/auth"
	"github.com/harborline/cruisebook-backend/pkg/config"
	pkgerrors "github.com/harborline/cruisebook-backend/pkg/errors"
	"github.com/harborline/cruisebook-backend/pkg/logger"
)

type ctxKey string

const ctxAdminSubject ctxKey = "admin_subject"

// AdminAuth validates a staff bearer token and seeds the request context with
// the admin identity. Promotion management sits behind it.
func AdminAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
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

			claims, err := pkgauth.ParseAdminToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxAdminSubject, claims.Subject)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"admin_subject": claims.Subject,
					"admin_email":   claims.Email,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminSubject returns the authenticated staff subject, if any.
func AdminSubject(ctx context.Context) string {
	if subject, ok := ctx.Value(ctxAdminSubject).(string); ok {
		return subject
	}
	return ""
}
