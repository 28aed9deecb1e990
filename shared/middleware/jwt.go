package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/platform-api/shared/auth"
)

type contextKey struct{}

var UserClaimsKey = contextKey{}

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrInvalidAuthorization = errors.New("invalid authorization header format")
)

// NewJWTMiddleware rejects requests without a valid bearer token and stores the
// parsed claims in the request context. newClaims must return a fresh pointer
// for every call.
func NewJWTMiddleware(
	jwtAuth auth.JWTAuthenticator,
	secret string,
	newClaims func() jwt.Claims,
	onError func(w http.ResponseWriter, r *http.Request, err error),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := newClaims()
			if err := extractAndValidateJWT(r, jwtAuth, secret, claims); err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by the JWT middleware.
func ClaimsFromContext[T jwt.Claims](ctx context.Context) (T, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(T)
	return claims, ok
}

func extractAndValidateJWT(r *http.Request, jwtAuth auth.JWTAuthenticator, secret string, claims jwt.Claims) error {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ErrInvalidAuthorization
	}

	_, err := jwtAuth.ValidateTokenWithClaims(parts[1], secret, claims)

	return err
}
