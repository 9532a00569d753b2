package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Upsert(ctx context.Context, id uuid.UUID, displayName string) error {
	return m.Called(ctx, id, displayName).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestEnsureUserUpsertsOncePerWindow(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, time.Minute)
	id := uuid.New()

	repo.On("Upsert", mock.Anything, id, "Ada").Return(nil).Once()

	assert.NoError(t, svc.EnsureUser(context.Background(), id, "Ada"))
	assert.NoError(t, svc.EnsureUser(context.Background(), id, "Ada"))
	repo.AssertExpectations(t)
}

func TestEnsureUserResyncsOnNameChange(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, time.Minute)
	id := uuid.New()

	repo.On("Upsert", mock.Anything, id, "Ada").Return(nil).Once()
	repo.On("Upsert", mock.Anything, id, "Ada L.").Return(nil).Once()

	assert.NoError(t, svc.EnsureUser(context.Background(), id, "Ada"))
	assert.NoError(t, svc.EnsureUser(context.Background(), id, "Ada L."))
	repo.AssertExpectations(t)
}

func TestEnsureUserFailureIsNotCached(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, time.Minute)
	id := uuid.New()
	boom := errors.New("db down")

	repo.On("Upsert", mock.Anything, id, "Ada").Return(boom).Once()
	repo.On("Upsert", mock.Anything, id, "Ada").Return(nil).Once()

	assert.ErrorIs(t, svc.EnsureUser(context.Background(), id, "Ada"), boom)
	assert.NoError(t, svc.EnsureUser(context.Background(), id, "Ada"))
	repo.AssertExpectations(t)
}

func TestDisplayNameFallsBackToStoredName(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, time.Minute)
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(&User{ID: id, DisplayName: "Stored"}, nil)

	assert.Equal(t, "Claimed", svc.DisplayName(context.Background(), id, "Claimed"))
	assert.Equal(t, "Stored", svc.DisplayName(context.Background(), id, ""))
}
