package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
	NotificationReply   NotificationType = "reply"
	NotificationPost    NotificationType = "post"
	NotificationSystem  NotificationType = "system"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationMention,
		NotificationReply, NotificationPost, NotificationSystem:
		return true
	}
	return false
}

const (
	MaxNotificationTitle   = 200
	MaxNotificationMessage = 500
	MaxNotificationLink    = 500
)

// Notification is a message for one recipient. ReadAt is set exactly when IsRead
// becomes true; CreatedAt is written on insert only.
type Notification struct {
	ID          string            `json:"id" gorm:"primaryKey;size:36"`
	RecipientID uint              `json:"recipient_id" gorm:"not null;index:idx_notifications_recipient_created,priority:1;index:idx_notifications_recipient_read,priority:1"`
	SenderID    *uint             `json:"sender_id,omitempty" gorm:"index"`
	Type        NotificationType  `json:"notification_type" gorm:"size:20;not null"`
	Title       string            `json:"title" gorm:"size:200;not null"`
	Message     string            `json:"message" gorm:"size:500;not null"`
	Link        string            `json:"link" gorm:"size:500"`
	Data        datatypes.JSONMap `json:"data"`
	IsRead      bool              `json:"is_read" gorm:"not null;index:idx_notifications_recipient_read,priority:2"`
	ReadAt      *time.Time        `json:"read_at"`
	CreatedAt   time.Time         `json:"created_at" gorm:"<-:create;index:idx_notifications_recipient_created,priority:2,sort:desc"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
