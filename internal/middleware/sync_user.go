package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/pkg/errorhandler"
)

// UserSyncer mirrors an authenticated identity into the local users table.
type UserSyncer interface {
	EnsureUser(ctx context.Context, id uuid.UUID, displayName string) error
	DisplayName(ctx context.Context, id uuid.UUID, fallback string) string
}

// SyncUser must run after Auth. It makes sure the caller has a users row
// before any ledger or ownership write references it, and fills in the
// stored display name when the token carries none.
func SyncUser(syncer UserSyncer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := GetUserID(ctx)
			if userID != uuid.Nil {
				name := GetDisplayName(ctx)
				if err := syncer.EnsureUser(ctx, userID, name); err != nil {
					errorhandler.HandleDomainError(ctx, w, err)
					return
				}
				if name == "" {
					ctx = WithUser(ctx, userID, syncer.DisplayName(ctx, userID, ""))
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Chain composes middlewares so the first one runs outermost.
func Chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
