package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"labportal/internal/user"
	"labportal/pkg/config"
)

type sessionClaims struct {
	jwt.RegisteredClaims
}

// VerifySessionToken verifies an HS256 session token issued by the auth
// service and returns the subject user id.
func VerifySessionToken(tokenString, secret string, now time.Time) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("missing token")
	}
	if secret == "" {
		return "", fmt.Errorf("missing session secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &sessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !tok.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return "", fmt.Errorf("token expired")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("missing subject")
	}
	return claims.Subject, nil
}

// SessionAuth loads the caller from a Bearer session token and attaches the
// user record to the request context. Inactive accounts are rejected.
func SessionAuth(cfg config.Config, users *user.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(authz, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
				return
			}

			userID, err := VerifySessionToken(strings.TrimPrefix(authz, "Bearer "), cfg.SessionSecret, time.Now())
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
				return
			}

			u, err := users.GetByID(r.Context(), userID)
			if err != nil || !u.Active {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown or inactive user")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireRole gates a route group on one of the given roles. Must run after
// SessionAuth.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
		})
	}
}
