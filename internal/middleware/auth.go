package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/pkg/jwt"
	"github.com/spacecards/economy-api/internal/pkg/response"
)

type contextKey string

const (
	UserIDKey      contextKey = "user_id"
	DisplayNameKey contextKey = "display_name"
)

// Auth returns middleware that validates the identity provider's JWT
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, DisplayNameKey, claims.Name)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetDisplayName extracts the display name claim from context
func GetDisplayName(ctx context.Context) string {
	if name, ok := ctx.Value(DisplayNameKey).(string); ok {
		return name
	}
	return ""
}

// WithUser returns ctx carrying an authenticated user. Used by tests and
// internal callers that bypass token parsing.
func WithUser(ctx context.Context, userID uuid.UUID, name string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, DisplayNameKey, name)
}
