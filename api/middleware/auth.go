package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/arnaszs/servizas/api/responses"
	pkgAuth "github.com/arnaszs/servizas/pkg/auth"
	"github.com/arnaszs/servizas/pkg/config"
	"github.com/arnaszs/servizas/pkg/enums"
	pkgerrors "github.com/arnaszs/servizas/pkg/errors"
	"github.com/arnaszs/servizas/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
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

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			// client tokens must name the client they act for
			if claims.Role == enums.ActorRoleClient && claims.ClientID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing client id"))
				return
			}

			ctx := WithRole(r.Context(), claims.Role)
			if claims.ClientID != uuid.Nil {
				ctx = WithClientID(ctx, claims.ClientID)
			}
			if logg != nil {
				ctx = logg.WithField(ctx, "actor_role", string(claims.Role))
				if claims.ClientID != uuid.Nil {
					ctx = logg.WithClientID(ctx, claims.ClientID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
