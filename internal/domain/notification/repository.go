package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, user_id, type, title, body, COALESCE(data, '{}'::jsonb) AS data, is_read, read_at, created_at`

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, error)
	CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var data interface{}
	if len(n.Data) > 0 {
		data = []byte(n.Data)
	}
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Body,
		data,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("notification repository create: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	query := `
		SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND (NOT $2::boolean OR NOT is_read)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	notifications := []*Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, unreadOnly, limit, offset); err != nil {
		return nil, fmt.Errorf("notification repository list: %w", err)
	}
	return notifications, nil
}

func (r *repository) CountUnreadByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

// MarkAsRead marks one of the user's notifications read. Already read
// notifications are left untouched.
func (r *repository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	var found bool
	err := r.db.GetContext(ctx, &found, `
		WITH target AS (
			SELECT id FROM notifications WHERE id = $1 AND user_id = $2
		), updated AS (
			UPDATE notifications SET is_read = true, read_at = NOW()
			WHERE id IN (SELECT id FROM target) AND NOT is_read
		)
		SELECT EXISTS (SELECT 1 FROM target)
	`, id, userID)
	if err != nil {
		return fmt.Errorf("notification repository mark read: %w", err)
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND NOT is_read`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteReadOlderThan removes read notifications created before cutoff
func (r *repository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1 AND is_read`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteOlderThan removes every notification created before cutoff
func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
