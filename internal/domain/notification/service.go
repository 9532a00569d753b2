package notification

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// deliveryTimeout bounds one background notification write.
const deliveryTimeout = 5 * time.Second

// Service handles notification logic
type Service struct {
	repo      Repository
	publisher RealtimePublisher
	pending   sync.WaitGroup
}

// NewService creates notification service. publisher may be nil.
func NewService(repo Repository, publisher RealtimePublisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Create stores a notification and publishes it to realtime subscribers.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, notifType Type, title, body string, data *NotificationData) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}

	if body != "" {
		n.Body = sql.NullString{String: body, Valid: true}
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		unread, err := s.repo.CountUnreadByUser(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to count unread notifications")
		}
		if err := s.publisher.NotifyNew(ctx, userID, itemFromEntity(n), unread); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to publish notification")
		}
	}

	return n, nil
}

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 100
)

// Inbox returns a page of the user's notifications, newest first, with the
// current unread count.
func (s *Service) Inbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) (*Inbox, error) {
	if limit <= 0 || limit > maxInboxLimit {
		limit = defaultInboxLimit
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnreadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	inbox := &Inbox{Items: make([]*Item, len(notifications)), Unread: unread, Limit: limit, Offset: offset}
	for i, n := range notifications {
		inbox.Items[i] = itemFromEntity(n)
	}
	return inbox, nil
}

// MarkAsRead marks one of the user's notifications read and returns the
// remaining unread count.
func (s *Service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (*ReadResult, error) {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnreadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ReadResult{Unread: unread}, nil
}

// MarkAllAsRead clears the user's unread notifications.
func (s *Service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (*ReadResult, error) {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return nil, err
	}
	return &ReadResult{}, nil
}

// Wait blocks until background deliveries started so far have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// deliver writes a notification in the background. Failures are logged
// and never reach the operation that triggered them.
func (s *Service) deliver(ctx context.Context, userID uuid.UUID, notifType Type, title, body string, data *NotificationData) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
		defer cancel()

		if _, err := s.Create(ctx, userID, notifType, title, body, data); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID.String()).
				Str("type", string(notifType)).
				Msg("failed to deliver notification")
		}
	}()
}

// --- Economy events ---

// NotifyCardMinted tells the creator a copy of their card was minted.
func (s *Service) NotifyCardMinted(ctx context.Context, creatorID, cardID uuid.UUID, title, buyerName string, edition int) {
	s.deliver(ctx, creatorID, TypeCardMinted,
		"New mint of \""+title+"\"",
		fmt.Sprintf("%s minted edition #%d", buyerName, edition),
		&NotificationData{CardID: &cardID, EditionNumber: &edition},
	)
}

// NotifyCardSold tells the seller their listing was bought.
func (s *Service) NotifyCardSold(ctx context.Context, sellerID, cardID uuid.UUID, title, buyerName string, price, net decimal.Decimal) {
	s.deliver(ctx, sellerID, TypeCardSold,
		"Your \""+title+"\" sold",
		fmt.Sprintf("%s bought it for %s. You received %s.", buyerName, price.StringFixed(2), net.StringFixed(2)),
		&NotificationData{CardID: &cardID, Amount: &net},
	)
}

// NotifyRoyaltyEarned tells the creator a resale paid them a royalty.
func (s *Service) NotifyRoyaltyEarned(ctx context.Context, creatorID, cardID uuid.UUID, title string, royalty decimal.Decimal) {
	s.deliver(ctx, creatorID, TypeRoyaltyEarned,
		"Royalty earned",
		fmt.Sprintf("You earned %s from a resale of \"%s\"", royalty.StringFixed(2), title),
		&NotificationData{CardID: &cardID, Amount: &royalty},
	)
}
