// Package jobs holds the scheduled background work around notifications.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/email"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

const digestWindow = 24 * time.Hour

// DigestJob emails every opted-in user who received unread notifications in
// the last 24 hours.
type DigestJob struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	sender        email.Sender
	siteURL       string
	now           func() time.Time
}

func NewDigestJob(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, sender email.Sender) *DigestJob {
	return &DigestJob{notifications: notifRepo, users: userRepo, sender: sender, now: time.Now}
}

// WithSiteURL appends a link to the notifications page of siteURL to every digest.
func (j *DigestJob) WithSiteURL(siteURL string) *DigestJob {
	j.siteURL = strings.TrimRight(siteURL, "/")
	return j
}

func (j *DigestJob) Name() string { return "digest" }

// Run sends the digests. A failed send is logged and skipped; only failing to
// read the counts or recipients aborts the run.
func (j *DigestJob) Run(ctx context.Context) error {
	counts, err := j.notifications.UnreadCountsSince(j.now().Add(-digestWindow))
	if err != nil {
		return fmt.Errorf("digest: count unread notifications: %w", err)
	}
	if len(counts) == 0 {
		logger.Log.Info("digest: no users with unread notifications")
		return nil
	}

	ids := make([]uint, len(counts))
	byUser := make(map[uint]int64, len(counts))
	for i, c := range counts {
		ids[i] = c.RecipientID
		byUser[c.RecipientID] = c.Count
	}
	users, err := j.users.GetUsersByIDs(ids)
	if err != nil {
		return fmt.Errorf("digest: load recipients: %w", err)
	}

	sent, failed := 0, 0
	for _, u := range users {
		count := byUser[u.ID]
		if !u.EmailNotifications || count == 0 || u.Email == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		subject, body := DigestMessage(u.Username, count)
		if j.siteURL != "" {
			body += "\n\n" + j.siteURL + "/notifications"
		}
		if err := j.sender.Send(ctx, u.Email, subject, body); err != nil {
			failed++
			logger.Log.WithError(err).WithField("user_id", u.ID).Warn("digest email failed")
			continue
		}
		sent++
	}

	logger.Log.WithFields(logrus.Fields{"sent": sent, "failed": failed}).Info("digest: run completed")
	return nil
}

// DigestMessage renders the subject and body of one digest email.
func DigestMessage(username string, unread int64) (subject, body string) {
	subject = fmt.Sprintf("You have %d unread notifications on DevConnect", unread)
	body = fmt.Sprintf("Hi %s,\n\nYou have %d unread notifications waiting for you.\n\nVisit DevConnect to check them out!", username, unread)
	return subject, body
}
