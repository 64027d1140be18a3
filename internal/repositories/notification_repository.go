package repositories

import (
	"time"

	"github.com/devconnect/backend/internal/models"
	"gorm.io/gorm"
)

// UnreadCount is one row of UnreadCountsSince.
type UnreadCount struct {
	RecipientID uint
	Count       int64
}

// NotificationRepository defines the interface for notification operations.
// Every read and write except Create and the bulk jobs is scoped to a recipient.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByID(id string, recipientID uint) (*models.Notification, error)
	ListByRecipient(recipientID uint, page, limit int, unreadOnly bool) ([]models.Notification, int64, error)
	CountUnread(recipientID uint) (int64, error)
	MarkAsRead(id string, recipientID uint, at time.Time) error
	MarkAllAsRead(recipientID uint, at time.Time) (int64, error)
	Delete(id string, recipientID uint) error
	DeleteAll(recipientID uint) (int64, error)
	DeleteReadBefore(cutoff time.Time) (int64, error)
	UnreadCountsSince(since time.Time) ([]UnreadCount, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByID(id string, recipientID uint) (*models.Notification, error) {
	var n models.Notification
	err := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *postgresNotificationRepository) ListByRecipient(recipientID uint, page, limit int, unreadOnly bool) ([]models.Notification, int64, error) {
	notifications := []models.Notification{}
	var total int64

	q := r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := q.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead only transitions unread rows, so read_at keeps its first value on repeats.
func (r *postgresNotificationRepository) MarkAsRead(id string, recipientID uint, at time.Time) error {
	var exists int64
	if err := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	return r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint, at time.Time) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) Delete(id string, recipientID uint) error {
	res := r.db.Where("id = ? AND recipient_id = ?", id, recipientID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresNotificationRepository) DeleteAll(recipientID uint) (int64, error) {
	res := r.db.Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteReadBefore removes read notifications whose read_at is older than cutoff.
// Unread rows are never touched regardless of age.
func (r *postgresNotificationRepository) DeleteReadBefore(cutoff time.Time) (int64, error) {
	res := r.db.Where("is_read = ? AND read_at < ?", true, cutoff).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) UnreadCountsSince(since time.Time) ([]UnreadCount, error) {
	var rows []UnreadCount
	err := r.db.Model(&models.Notification{}).
		Select("recipient_id, COUNT(*) AS count").
		Where("is_read = ? AND created_at >= ?", false, since).
		Group("recipient_id").
		Order("recipient_id").
		Scan(&rows).Error
	return rows, err
}
