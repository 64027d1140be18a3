package notifications

import (
	"context"
	"fmt"

	"github.com/devconnect/backend/pkg/pubsub"
)

// Message types carried on a recipient's group.
const (
	MessageNotification = "notification_message"
	MessageUnreadCount  = "unread_count_update"
)

// GroupName is the pub/sub group every connection of a recipient subscribes to.
func GroupName(recipientID uint) string {
	return fmt.Sprintf("notifications_%d", recipientID)
}

// UnreadCountPayload is the data of an unread_count_update message.
type UnreadCountPayload struct {
	Count int64 `json:"count"`
}

// Publisher broadcasts notification events to recipient groups. It offers no
// delivery guarantee: subscribers that are not connected miss the event.
type Publisher struct {
	broker pubsub.Broker
}

func NewPublisher(broker pubsub.Broker) *Publisher {
	return &Publisher{broker: broker}
}

func (p *Publisher) PublishNotification(ctx context.Context, recipientID uint, n NotificationResponse) error {
	return p.publish(ctx, recipientID, MessageNotification, n)
}

func (p *Publisher) PublishUnreadCount(ctx context.Context, recipientID uint, count int64) error {
	return p.publish(ctx, recipientID, MessageUnreadCount, UnreadCountPayload{Count: count})
}

func (p *Publisher) publish(ctx context.Context, recipientID uint, msgType string, data any) error {
	if p == nil || p.broker == nil {
		return nil
	}
	msg, err := pubsub.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	if err := p.broker.Publish(ctx, GroupName(recipientID), msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", msgType, GroupName(recipientID), err)
	}
	return nil
}
