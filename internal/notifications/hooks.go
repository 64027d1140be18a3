package notifications

import (
	"context"
	"fmt"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Creator is the part of Service the hooks depend on.
type Creator interface {
	Create(ctx context.Context, p CreateParams) (*models.Notification, error)
}

// Hooks is the boundary between social actions and notifications. Fire never
// fails: errors and panics from notification creation are logged and dropped so
// the action that triggered them always completes.
type Hooks struct {
	creator Creator
}

func NewHooks(creator Creator) *Hooks {
	return &Hooks{creator: creator}
}

// Fire creates the notification described by t, if any. It returns the created
// notification or nil.
func (h *Hooks) Fire(ctx context.Context, t NotificationTrigger) (created *models.Notification) {
	if h == nil || h.creator == nil || t == nil {
		return nil
	}
	log := logger.Log.WithField("trigger", fmt.Sprintf("%T", t))

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("notification hook panicked")
			created = nil
		}
	}()

	params, ok := t.Notification()
	if !ok {
		log.Debug("notification suppressed")
		return nil
	}

	n, err := h.creator.Create(ctx, params)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"recipient_id": params.RecipientID,
			"type":         params.Type,
		}).Error("failed to create notification")
		return nil
	}
	return n
}
