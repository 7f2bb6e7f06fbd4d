package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/jb-labs/identity/pkg/jwtx"
	"github.com/jb-labs/identity/pkg/slogx"
)

// TokenVerifier validates a presented access token end to end (signature,
// expiry, revocation) and returns its claims. The token lifecycle engine
// implements this; the middleware stays ignorant of how verification works.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (jwtx.Claims, error)
}

// AuthnMiddleware rejects requests without a valid bearer token and injects
// the subject and scope set into the request context.
func AuthnMiddleware(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.VerifyAccessToken(ctx, raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("token verify failed", "err", err)
				return
			}

			ctx = context.WithValue(ctx, CtxKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyScopes, ParseSpaceDelimitedFields(claims.Scope))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
