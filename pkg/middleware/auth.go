package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"guidehub/internal/data/entity"
	"guidehub/internal/usecase"
	"guidehub/pkg/utils"

	"go.uber.org/zap"
)

// Authenticator resolves an access token to the caller behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*usecase.Identity, error)
}

// AuthSession accepts a bearer token or, failing that, the session cookie.
func AuthSession(auth Authenticator, cookieName string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractToken(r, cookieName)
			if !ok {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, usecase.ErrUnauthorized) {
					logger.Warn("Invalid or expired session",
						zap.Error(err),
						zap.String("path", r.URL.Path))
					utils.ResponseUnauthorized(w, "Invalid or expired session")
					return
				}

				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}

			ctx := utils.SetUserContext(r.Context(), identity.UserID, string(identity.Role))
			ctx = utils.SetSessionContext(ctx, identity.SessionID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only for the given roles. Must run
// after AuthSession.
func RequireRole(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			for _, allowed := range roles {
				if entity.UserRole(role) == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Role check: access denied",
				zap.String("user_id", userID.String()),
				zap.String("role", role),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "Insufficient permissions")
		})
	}
}

func extractToken(r *http.Request, cookieName string) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}

	if cookieName == "" {
		return "", false
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
