package middleware

import (
	"net/http"
	"strings"

	"github.com/hoangdh1/eCommerce/api/responses"
	pkgAuth "github.com/hoangdh1/eCommerce/pkg/auth"
	"github.com/hoangdh1/eCommerce/pkg/config"
	pkgerrors "github.com/hoangdh1/eCommerce/pkg/errors"
	"github.com/hoangdh1/eCommerce/pkg/logger"
)

// Auth requires a valid access token and puts the actor on the context.
// The "Bearer" scheme prefix is optional.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actorID := claims.ActorID.String()
			ctx := WithActor(r.Context(), actorID, claims.Role)
			if logg != nil {
				ctx = logg.WithActor(ctx, actorID, string(claims.Role))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}
