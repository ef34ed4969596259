package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const ProfileCtxKey = contextKey("profile_id")

// Session resolves the acting profile identity for each request. When a
// secret is configured the request must carry a Bearer JWT with a
// profile_id claim; without one, the development default id stands in for
// a logged-in user.
func Session(secret, defaultProfileID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				ctx := context.WithValue(r.Context(), ProfileCtxKey, defaultProfileID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			profileID, ok := claims["profile_id"].(string)
			if !ok {
				http.Error(w, "invalid profile_id in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ProfileCtxKey, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileIDFromContext extracts the session identity in handlers.
func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ProfileCtxKey).(string)
	return id, ok
}
