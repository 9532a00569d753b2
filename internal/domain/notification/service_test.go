package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
	mu      sync.Mutex
	created []*Notification
}

func (m *mockRepository) Create(ctx context.Context, n *Notification) error {
	err := m.Called(ctx, n).Error(0)
	if err == nil {
		m.mu.Lock()
		m.created = append(m.created, n)
		m.mu.Unlock()
	}
	return err
}

func (m *mockRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit, offset)
	if n := args.Get(0); n != nil {
		return n.([]*Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*Item
	unread []int
	err    error
}

func (p *recordingPublisher) NotifyNew(_ context.Context, _ uuid.UUID, n *Item, unreadCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, n)
	p.unread = append(p.unread, unreadCount)
	return p.err
}

func TestNotifyCardMintedStoresAndPublishes(t *testing.T) {
	repo := new(mockRepository)
	pub := &recordingPublisher{}
	svc := NewService(repo, pub)
	creatorID, cardID := uuid.New(), uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*notification.Notification")).Return(nil)
	repo.On("CountUnreadByUser", mock.Anything, creatorID).Return(3, nil)

	svc.NotifyCardMinted(context.Background(), creatorID, cardID, "Orion", "Nova", 7)
	svc.Wait()

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, creatorID, n.UserID)
	assert.Equal(t, TypeCardMinted, n.Type)
	assert.Equal(t, "Nova minted edition #7", n.Body.String)

	data := n.GetData()
	require.NotNil(t, data.CardID)
	assert.Equal(t, cardID, *data.CardID)
	require.NotNil(t, data.EditionNumber)
	assert.Equal(t, 7, *data.EditionNumber)

	require.Len(t, pub.events, 1)
	assert.Equal(t, TypeCardMinted, pub.events[0].Type)
	assert.Equal(t, cardID, *pub.events[0].CardID)
	assert.Equal(t, []int{3}, pub.unread)
}

func TestNotifyCardSoldAndRoyalty(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil)
	sellerID, creatorID, cardID := uuid.New(), uuid.New(), uuid.New()

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc.NotifyCardSold(context.Background(), sellerID, cardID, "Orion", "Nova", decimal.NewFromInt(100), decimal.NewFromInt(85))
	svc.NotifyRoyaltyEarned(context.Background(), creatorID, cardID, "Orion", decimal.NewFromInt(5))
	svc.Wait()

	require.Len(t, repo.created, 2)
	byType := map[Type]*Notification{}
	for _, n := range repo.created {
		byType[n.Type] = n
	}

	sold := byType[TypeCardSold]
	require.NotNil(t, sold)
	assert.Equal(t, sellerID, sold.UserID)
	assert.Equal(t, "Nova bought it for 100.00. You received 85.00.", sold.Body.String)
	assert.True(t, sold.GetData().Amount.Equal(decimal.NewFromInt(85)))

	royalty := byType[TypeRoyaltyEarned]
	require.NotNil(t, royalty)
	assert.Equal(t, creatorID, royalty.UserID)
	assert.True(t, royalty.GetData().Amount.Equal(decimal.NewFromInt(5)))
	repo.AssertNotCalled(t, "CountUnreadByUser", mock.Anything, mock.Anything)
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	ctx, cancel := context.WithCancel(context.Background())
	svc.NotifyCardMinted(ctx, uuid.New(), uuid.New(), "Orion", "Nova", 1)
	cancel()
	svc.Wait()

	assert.Empty(t, repo.created)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreatePublishFailureStillStores(t *testing.T) {
	repo := new(mockRepository)
	pub := &recordingPublisher{err: errors.New("redis down")}
	svc := NewService(repo, pub)
	userID := uuid.New()

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("CountUnreadByUser", mock.Anything, userID).Return(1, nil)

	n, err := svc.Create(context.Background(), userID, TypeCardSold, "Sold", "", nil)
	require.NoError(t, err)
	assert.False(t, n.Body.Valid)
	assert.Nil(t, n.Data)
	assert.Len(t, pub.events, 1)
}

func TestCleanupRunOnce(t *testing.T) {
	repo := new(mockRepository)
	job := NewCleanupJob(repo, 0)

	repo.On("DeleteReadOlderThan", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(4), nil)
	repo.On("DeleteOlderThan", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(1), nil)

	deleted, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
	assert.Equal(t, 90, job.retentionDays)
}

func TestInboxClampsPageAndCountsUnread(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil)
	userID, cardID := uuid.New(), uuid.New()

	n := &Notification{ID: uuid.New(), UserID: userID, Type: TypeRoyaltyEarned, Title: "Royalty earned"}
	amount := decimal.RequireFromString("2.50")
	n.SetData(&NotificationData{CardID: &cardID, Amount: &amount})

	repo.On("ListByUser", mock.Anything, userID, true, defaultInboxLimit, 0).Return([]*Notification{n}, nil)
	repo.On("CountUnreadByUser", mock.Anything, userID).Return(4, nil)

	inbox, err := svc.Inbox(context.Background(), userID, true, 500, -3)
	require.NoError(t, err)
	assert.Equal(t, 4, inbox.Unread)
	assert.Equal(t, defaultInboxLimit, inbox.Limit)
	assert.Equal(t, 0, inbox.Offset)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, cardID, *inbox.Items[0].CardID)
	assert.True(t, inbox.Items[0].Amount.Equal(amount))
	assert.Nil(t, inbox.Items[0].EditionNumber)
}

func TestMarkAsReadReturnsRemainingUnread(t *testing.T) {
	repo := new(mockRepository)
	svc := NewService(repo, nil)
	userID, id := uuid.New(), uuid.New()

	repo.On("MarkAsRead", mock.Anything, id, userID).Return(nil)
	repo.On("CountUnreadByUser", mock.Anything, userID).Return(2, nil)

	result, err := svc.MarkAsRead(context.Background(), id, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Unread)

	other := uuid.New()
	repo.On("MarkAsRead", mock.Anything, other, userID).Return(ErrNotificationNotFound)
	_, err = svc.MarkAsRead(context.Background(), other, userID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}
