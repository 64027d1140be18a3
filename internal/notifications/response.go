package notifications

import (
	"fmt"
	"time"

	"github.com/devconnect/backend/internal/models"
	"gorm.io/datatypes"
)

// NotificationResponse is the serialized form shared by the HTTP API and the
// real-time channel.
type NotificationResponse struct {
	ID               string                  `json:"id"`
	Sender           *models.UserCompact     `json:"sender"`
	NotificationType models.NotificationType `json:"notification_type"`
	Title            string                  `json:"title"`
	Message          string                  `json:"message"`
	Link             string                  `json:"link"`
	Data             datatypes.JSONMap       `json:"data"`
	IsRead           bool                    `json:"is_read"`
	ReadAt           *time.Time              `json:"read_at"`
	CreatedAt        time.Time               `json:"created_at"`
	TimeAgo          string                  `json:"time_ago"`
}

func NewResponse(n *models.Notification, sender *models.User, now time.Time) NotificationResponse {
	data := n.Data
	if data == nil {
		data = datatypes.JSONMap{}
	}
	resp := NotificationResponse{
		ID:               n.ID,
		NotificationType: n.Type,
		Title:            n.Title,
		Message:          n.Message,
		Link:             n.Link,
		Data:             data,
		IsRead:           n.IsRead,
		ReadAt:           n.ReadAt,
		CreatedAt:        n.CreatedAt,
		TimeAgo:          TimeAgo(n.CreatedAt, now),
	}
	if sender != nil {
		compact := sender.ToCompact()
		resp.Sender = &compact
	}
	return resp
}

// TimeAgo renders the age of t relative to now the way the notification list shows it.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 02, 2006")
	}
}
