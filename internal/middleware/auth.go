package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/auth"
	"mindwell/internal/models"
)

type ProfileLoader interface {
	Profile(ctx context.Context, id string) (models.Profile, error)
}

type AuthMiddleware struct {
	issuer   *auth.Issuer
	profiles ProfileLoader
	logger   *zap.Logger
}

func NewAuthMiddleware(issuer *auth.Issuer, profiles ProfileLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, profiles: profiles, logger: logger}
}

// RequireAuth puts the caller's auth.Session into the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		session, err := m.issuer.Verify(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

// RequireRole loads the caller's profile and rejects roles not listed.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := auth.SessionFrom(r.Context())
			if !ok {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			profile, err := m.profiles.Profile(r.Context(), session.UserID)
			if errors.Is(err, apperr.ErrNotFound) {
				http.Error(w, "profile not found", http.StatusUnauthorized)
				return
			}
			if err != nil {
				m.logger.Error("load profile failed", zap.String("user_id", session.UserID), zap.Error(err))
				http.Error(w, "server error", http.StatusInternalServerError)
				return
			}
			if !slices.Contains(roles, profile.Role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithProfile(r.Context(), profile)))
		})
	}
}
