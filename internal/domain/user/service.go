package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// Service keeps the local users table in step with verified identities.
type Service struct {
	repo   Repository
	synced *cache.Cache
}

// NewService remembers synced identities for ttl so the users row is
// upserted at most once per window.
func NewService(repo Repository, ttl time.Duration) *Service {
	return &Service{
		repo:   repo,
		synced: cache.New(ttl, 2*ttl),
	}
}

// EnsureUser upserts the identity unless it was synced recently with the same name.
func (s *Service) EnsureUser(ctx context.Context, id uuid.UUID, displayName string) error {
	key := id.String()
	if name, ok := s.synced.Get(key); ok && name.(string) == displayName {
		return nil
	}

	if err := s.repo.Upsert(ctx, id, displayName); err != nil {
		return err
	}
	s.synced.SetDefault(key, displayName)

	log.Debug().Str("user_id", key).Msg("user synced from identity")
	return nil
}

// DisplayName returns the stored name, falling back to fallback when the
// user is unknown or unnamed.
func (s *Service) DisplayName(ctx context.Context, id uuid.UUID, fallback string) string {
	if fallback != "" {
		return fallback
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil || u.DisplayName == "" {
		return fallback
	}
	return u.DisplayName
}
