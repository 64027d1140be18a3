package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devconnect/backend/internal/handlers"
	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/notifications"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationList struct {
	Notifications []notifications.NotificationResponse `json:"notifications"`
}

// seedNotifications has alice, carol and dave follow bob.
func seedNotifications(t *testing.T, app *testApp) (bob *models.User) {
	t.Helper()
	bob = app.user(t, "bob")
	for _, name := range []string{"alice", "carol", "dave"} {
		follower := app.user(t, name)
		rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, follower)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	return bob
}

func unreadCount(t *testing.T, app *testApp, u *models.User) int64 {
	t.Helper()
	rec := app.do(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, u)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int64 `json:"count"`
	}
	data(t, rec, &body)
	return body.Count
}

func TestNotifications_ListAndUnreadFilter(t *testing.T) {
	app := newTestApp(t)
	bob := seedNotifications(t, app)

	rec := app.do(t, http.MethodGet, "/api/v1/notifications?limit=2", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var page notificationList
	data(t, rec, &page)
	require.Len(t, page.Notifications, 2)
	require.NotNil(t, page.Notifications[0].Sender)
	assert.Equal(t, "dave", page.Notifications[0].Sender.Username, "newest first")
	assert.Equal(t, "just now", page.Notifications[0].TimeAgo)

	var env struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, jsonBody(rec, &env))
	assert.EqualValues(t, 3, env.Meta["totalItems"])
	assert.Equal(t, true, env.Meta["hasNextPage"])

	first := page.Notifications[0].ID
	rec = app.do(t, http.MethodPut, "/api/v1/notifications/"+first+"/read", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/notifications?unread=true", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, rec, &page)
	assert.Len(t, page.Notifications, 2)
	for _, n := range page.Notifications {
		assert.NotEqual(t, first, n.ID)
	}
}

func TestNotifications_MarkReadIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	bob := seedNotifications(t, app)
	assert.EqualValues(t, 3, unreadCount(t, app, bob))

	id := app.notificationsFor(t, bob)[0].ID
	rec := app.do(t, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var first notifications.NotificationResponse
	data(t, rec, &first)
	assert.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)

	rec = app.do(t, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var second notifications.NotificationResponse
	data(t, rec, &second)
	require.NotNil(t, second.ReadAt)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt))

	assert.EqualValues(t, 2, unreadCount(t, app, bob))
}

func TestNotifications_MarkAllRead(t *testing.T) {
	app := newTestApp(t)
	bob := seedNotifications(t, app)

	rec := app.do(t, http.MethodPut, "/api/v1/notifications/read-all", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Updated int64 `json:"updated"`
	}
	data(t, rec, &body)
	assert.EqualValues(t, 3, body.Updated)
	assert.EqualValues(t, 0, unreadCount(t, app, bob))

	rec = app.do(t, http.MethodPut, "/api/v1/notifications/read-all", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, rec, &body)
	assert.EqualValues(t, 0, body.Updated)
}

func TestNotifications_OtherUsersRowsAreNotFound(t *testing.T) {
	app := newTestApp(t)
	bob := seedNotifications(t, app)
	mallory := app.user(t, "mallory")
	id := app.notificationsFor(t, bob)[0].ID

	rec := app.do(t, http.MethodPut, "/api/v1/notifications/"+id+"/read", nil, mallory)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodDelete, "/api/v1/notifications/"+id, nil, mallory)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodPut, "/api/v1/notifications/does-not-exist/read", nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.EqualValues(t, 3, unreadCount(t, app, bob))
}

func TestNotifications_Delete(t *testing.T) {
	app := newTestApp(t)
	bob := seedNotifications(t, app)
	id := app.notificationsFor(t, bob)[0].ID

	rec := app.do(t, http.MethodDelete, "/api/v1/notifications/"+id, nil, bob)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, app.notificationsFor(t, bob), 2)
	assert.EqualValues(t, 2, unreadCount(t, app, bob))

	rec = app.do(t, http.MethodDelete, "/api/v1/notifications", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Deleted int64 `json:"deleted"`
	}
	data(t, rec, &body)
	assert.EqualValues(t, 2, body.Deleted)
	assert.Empty(t, app.notificationsFor(t, bob))
	assert.EqualValues(t, 0, unreadCount(t, app, bob))
}

func TestNotifications_RequireAuth(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(t, http.MethodGet, "/api/v1/notifications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func readFrame(t *testing.T, conn *websocket.Conn) handlers.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f handlers.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestNotificationSocket_StreamsNewNotifications(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	bob := app.user(t, "bob")

	srv := httptest.NewServer(app.e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/notifications?token=" + tokenFor(t, bob)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readFrame(t, conn)
	assert.Equal(t, "unread_count", hello.Type)
	require.NotNil(t, hello.Count)
	assert.EqualValues(t, 0, *hello.Count)

	// the pong proves the server's read loop is running, so the subscription is live
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readFrame(t, conn).Type)

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	pushed := readFrame(t, conn)
	require.Equal(t, "notification", pushed.Type)
	var n notifications.NotificationResponse
	require.NoError(t, json.Unmarshal(pushed.Notification, &n))
	assert.Equal(t, models.NotificationFollow, n.NotificationType)
	require.NotNil(t, n.Sender)
	assert.Equal(t, "alice", n.Sender.Username)

	update := readFrame(t, conn)
	assert.Equal(t, notifications.MessageUnreadCount, update.Type)
	require.NotNil(t, update.Count)
	assert.EqualValues(t, 1, *update.Count)
}

func TestNotificationSocket_RejectsMissingToken(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.e)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws/notifications", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
