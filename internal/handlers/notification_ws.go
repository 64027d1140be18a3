package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/devconnect/backend/internal/notifications"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/devconnect/backend/pkg/pubsub"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = (wsPongWait * 9) / 10
	wsMaxMessage   = 512
)

// Frame is one JSON message on the notification socket.
type Frame struct {
	Type         string          `json:"type"`
	Count        *int64          `json:"count,omitempty"`
	Notification json.RawMessage `json:"notification,omitempty"`
}

// NotificationSocket streams a user's notifications over a websocket. Each
// connection subscribes to the user's group for as long as it stays open;
// nothing is replayed on reconnect.
type NotificationSocket struct {
	service  *notifications.Service
	broker   pubsub.Broker
	upgrader websocket.Upgrader
}

func NewNotificationSocket(service *notifications.Service, broker pubsub.Broker) *NotificationSocket {
	return &NotificationSocket{
		service: service,
		broker:  broker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *NotificationSocket) RegisterSocketRoutes(g *echo.Group) {
	g.GET("/ws/notifications", h.Serve)
}

// Serve subscribes before upgrading so a broker outage answers 503 instead of
// opening a socket that would never receive anything.
func (h *NotificationSocket) Serve(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	log := logger.Log.WithField("user_id", userID)
	if h.broker == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Real-time notifications unavailable")
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	sub, err := h.broker.Subscribe(ctx, notifications.GroupName(userID))
	if err != nil {
		log.WithError(err).Warn("notification subscribe failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Real-time notifications unavailable")
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.WithError(err).Debug("websocket upgrade failed")
		return nil
	}
	defer conn.Close()
	log.Debug("notification socket connected")

	count, err := h.service.UnreadCount(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("initial unread count failed")
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(Frame{Type: "unread_count", Count: &count}); err != nil {
		return nil
	}

	replies := make(chan Frame, 4)
	done := make(chan struct{})
	go readFrames(conn, replies, done)

	writeLoop(conn, sub.Messages(), replies, done, log)
	log.Debug("notification socket disconnected")
	return nil
}

// readFrames answers client pings until the connection fails. It is the only reader.
func readFrames(conn *websocket.Conn, replies chan<- Frame, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in Frame
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		if in.Type == "ping" {
			select {
			case replies <- Frame{Type: "pong"}:
			default:
			}
		}
	}
}

// writeLoop is the connection's single writer.
func writeLoop(conn *websocket.Conn, events <-chan pubsub.Message, replies <-chan Frame, done <-chan struct{}, log *logrus.Entry) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return
			}
			frame, ok := translate(msg)
			if !ok {
				log.WithField("message_type", msg.Type).Debug("ignoring pubsub message")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case frame := <-replies:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// translate maps a pubsub message onto the client wire shape.
func translate(msg pubsub.Message) (Frame, bool) {
	switch msg.Type {
	case notifications.MessageNotification:
		return Frame{Type: "notification", Notification: msg.Data}, true
	case notifications.MessageUnreadCount:
		var payload notifications.UnreadCountPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return Frame{}, false
		}
		return Frame{Type: notifications.MessageUnreadCount, Count: &payload.Count}, true
	}
	return Frame{}, false
}
