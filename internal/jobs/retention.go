package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/logger"
)

const DefaultRetentionDays = 30

// RetentionJob deletes notifications that were read more than Days ago.
// Unread notifications are kept however old they are.
type RetentionJob struct {
	notifications repositories.NotificationRepository
	days          int
	now           func() time.Time
}

func NewRetentionJob(notifRepo repositories.NotificationRepository, days int) *RetentionJob {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	return &RetentionJob{notifications: notifRepo, days: days, now: time.Now}
}

func (j *RetentionJob) Name() string { return "cleanup" }

func (j *RetentionJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cutoff := j.now().AddDate(0, 0, -j.days)
	deleted, err := j.notifications.DeleteReadBefore(cutoff)
	if err != nil {
		return fmt.Errorf("cleanup: delete read notifications: %w", err)
	}
	logger.Log.WithField("deleted", deleted).WithField("cutoff", cutoff).Info("cleanup: run completed")
	return nil
}
