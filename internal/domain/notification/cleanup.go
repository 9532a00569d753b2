package notification

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// unreadRetention bounds how long unread notifications are kept.
const unreadRetention = 180 * 24 * time.Hour

// CleanupJob handles notification retention cleanup
type CleanupJob struct {
	repo          Repository
	retentionDays int
}

// NewCleanupJob creates a cleanup job
func NewCleanupJob(repo Repository, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = 90 // Default 90 days
	}
	return &CleanupJob{
		repo:          repo,
		retentionDays: retentionDays,
	}
}

// Start starts the cleanup job with the given interval
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	j.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Notification cleanup job stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *CleanupJob) run(ctx context.Context) {
	rows, err := j.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to cleanup old notifications")
		return
	}
	if rows > 0 {
		log.Info().
			Int64("deleted", rows).
			Int("retention_days", j.retentionDays).
			Msg("Cleaned up old notifications")
	}
}

// RunOnce deletes read notifications past retention and any notification
// past the unread limit.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now()

	read, err := j.repo.DeleteReadOlderThan(ctx, now.AddDate(0, 0, -j.retentionDays))
	if err != nil {
		return 0, err
	}
	stale, err := j.repo.DeleteOlderThan(ctx, now.Add(-unreadRetention))
	if err != nil {
		return read, err
	}
	return read + stale, nil
}
