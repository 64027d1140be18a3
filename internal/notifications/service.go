// Package notifications creates, delivers and queries user notifications.
//
// The store is the source of truth. Real-time delivery through the pub/sub
// broker is best-effort: publish failures are logged and never returned to the
// code path that created or changed a notification.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRecipientRequired = errors.New("notification recipient is required")
	ErrInvalidType       = errors.New("invalid notification type")
	ErrNotFound          = errors.New("notification not found")
)

const (
	DefaultTitle   = "New notification"
	DefaultMessage = "You have a new notification."

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CreateParams are the inputs of Service.Create. Only RecipientID is required.
type CreateParams struct {
	RecipientID uint
	SenderID    *uint
	Type        models.NotificationType
	Title       string
	Message     string
	Link        string
	Data        map[string]interface{}
}

// ListOptions pages through a recipient's notifications, newest first.
type ListOptions struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

type ListResult struct {
	Items []NotificationResponse `json:"items"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

type Service struct {
	repo      repositories.NotificationRepository
	users     repositories.UserRepository
	publisher *Publisher
	now       func() time.Time
}

// NewService wires the store and publisher. users is used to attach the sender
// to serialized notifications and may be nil.
func NewService(repo repositories.NotificationRepository, users repositories.UserRepository, publisher *Publisher) *Service {
	return &Service{repo: repo, users: users, publisher: publisher, now: time.Now}
}

// Create validates p, persists one notification and then pushes it and the new
// unread count to the recipient. Only validation and persistence errors are returned.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Notification, error) {
	if p.RecipientID == 0 {
		return nil, ErrRecipientRequired
	}
	kind := p.Type
	if kind == "" {
		kind = models.NotificationSystem
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, kind)
	}

	title := truncate(strings.TrimSpace(p.Title), models.MaxNotificationTitle)
	if title == "" {
		title = DefaultTitle
	}
	message := truncate(strings.TrimSpace(p.Message), models.MaxNotificationMessage)
	if message == "" {
		message = DefaultMessage
	}
	data := datatypes.JSONMap(p.Data)
	if data == nil {
		data = datatypes.JSONMap{}
	}

	n := &models.Notification{
		RecipientID: p.RecipientID,
		SenderID:    p.SenderID,
		Type:        kind,
		Title:       title,
		Message:     message,
		Link:        truncate(p.Link, models.MaxNotificationLink),
		Data:        data,
	}
	if err := s.repo.Create(n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"recipient_id":    n.RecipientID,
		"type":            n.Type,
	})
	log.Debug("notification created")

	if err := s.publisher.PublishNotification(ctx, n.RecipientID, s.respond(n)); err != nil {
		log.WithError(err).Warn("real-time notification delivery failed")
	}
	if _, err := s.RecomputeUnread(ctx, n.RecipientID); err != nil {
		log.WithError(err).Warn("unread count recompute failed")
	}
	return n, nil
}

// RecomputeUnread counts the recipient's unread notifications from the store and
// publishes the result. A failed publish is logged; a failed count is returned.
func (s *Service) RecomputeUnread(ctx context.Context, recipientID uint) (int64, error) {
	count, err := s.repo.CountUnread(recipientID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	if err := s.publisher.PublishUnreadCount(ctx, recipientID, count); err != nil {
		logger.Log.WithError(err).WithField("recipient_id", recipientID).Warn("unread count delivery failed")
	}
	return count, nil
}

func (s *Service) UnreadCount(_ context.Context, recipientID uint) (int64, error) {
	return s.repo.CountUnread(recipientID)
}

func (s *Service) List(_ context.Context, recipientID uint, opts ListOptions) (*ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultPageSize
	}
	if opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
	}

	rows, total, err := s.repo.ListByRecipient(recipientID, opts.Page, opts.Limit, opts.UnreadOnly)
	if err != nil {
		return nil, err
	}

	senders := s.loadSenders(rows)
	now := s.now()
	items := make([]NotificationResponse, 0, len(rows))
	for i := range rows {
		var sender *models.User
		if rows[i].SenderID != nil {
			sender = senders[*rows[i].SenderID]
		}
		items = append(items, NewResponse(&rows[i], sender, now))
	}
	return &ListResult{Items: items, Total: total, Page: opts.Page, Limit: opts.Limit}, nil
}

func (s *Service) Get(_ context.Context, recipientID uint, id string) (*NotificationResponse, error) {
	n, err := s.repo.GetByID(id, recipientID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	resp := s.respond(n)
	return &resp, nil
}

// MarkRead marks one of the recipient's notifications read. Marking an already
// read notification succeeds and keeps its original read_at.
func (s *Service) MarkRead(ctx context.Context, recipientID uint, id string) (*NotificationResponse, error) {
	if err := s.repo.MarkAsRead(id, recipientID, s.now()); err != nil {
		return nil, mapNotFound(err)
	}
	s.recomputeQuietly(ctx, recipientID)
	return s.Get(ctx, recipientID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	updated, err := s.repo.MarkAllAsRead(recipientID, s.now())
	if err != nil {
		return 0, err
	}
	s.recomputeQuietly(ctx, recipientID)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, recipientID uint, id string) error {
	if err := s.repo.Delete(id, recipientID); err != nil {
		return mapNotFound(err)
	}
	s.recomputeQuietly(ctx, recipientID)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context, recipientID uint) (int64, error) {
	deleted, err := s.repo.DeleteAll(recipientID)
	if err != nil {
		return 0, err
	}
	s.recomputeQuietly(ctx, recipientID)
	return deleted, nil
}

func (s *Service) recomputeQuietly(ctx context.Context, recipientID uint) {
	if _, err := s.RecomputeUnread(ctx, recipientID); err != nil {
		logger.Log.WithError(err).WithField("recipient_id", recipientID).Warn("unread count recompute failed")
	}
}

func (s *Service) respond(n *models.Notification) NotificationResponse {
	var sender *models.User
	if n.SenderID != nil && s.users != nil {
		if u, err := s.users.GetUserByID(*n.SenderID); err == nil {
			sender = u
		}
	}
	return NewResponse(n, sender, s.now())
}

func (s *Service) loadSenders(rows []models.Notification) map[uint]*models.User {
	out := make(map[uint]*models.User)
	if s.users == nil {
		return out
	}
	seen := make(map[uint]bool)
	var ids []uint
	for _, n := range rows {
		if n.SenderID != nil && !seen[*n.SenderID] {
			seen[*n.SenderID] = true
			ids = append(ids, *n.SenderID)
		}
	}
	users, err := s.users.GetUsersByIDs(ids)
	if err != nil {
		logger.Log.WithError(err).Warn("loading notification senders failed")
		return out
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out
}

func mapNotFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
