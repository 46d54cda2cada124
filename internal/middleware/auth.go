package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
)

// AccessTokenCookie is the cookie set on login and read by AuthMiddleware
const AccessTokenCookie = "access_token"

// TokenValidator validates access tokens
//
// Implemented by auth.TokenGenerator.
type TokenValidator interface {
	ValidateAccessToken(token string) (userID int, role int, err error)
}

// AuthMiddleware validates the access token and stores the user ID and role in the request context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeError(w, apperrors.Clone(apperrors.ErrUnauthorized, "authentication required"))
				return
			}

			userID, role, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeError(w, apperrors.Clone(apperrors.ErrUnauthorized, "invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, models.Role(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleMiddleware lets the request through when the authenticated role is at least requiredRole
// It must be mounted after AuthMiddleware
func RoleMiddleware(requiredRole models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				writeError(w, apperrors.Clone(apperrors.ErrUnauthorized, "authentication required"))
				return
			}
			if role < requiredRole {
				writeError(w, apperrors.Clone(apperrors.ErrAccessDenied, "insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads a bearer token from the Authorization header, falling back to the access token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetRole retrieves the user role from context
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

// WithUser returns a context carrying an authenticated user, used by handler tests
func WithUser(ctx context.Context, userID int, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}
