package handlers

import (
	"errors"
	"net/http"

	"github.com/devconnect/backend/internal/notifications"
	"github.com/labstack/echo/v4"
)

// NotificationHandler is the query surface over the caller's notifications
type NotificationHandler struct {
	service *notifications.Service
}

func NewNotificationHandler(service *notifications.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications", h.DeleteAll)
	g.DELETE("/notifications/:id", h.Delete)
}

// GetNotifications returns paginated notifications, only unread ones with ?unread=true
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	page, limit := paging(c, notifications.DefaultPageSize, notifications.MaxPageSize)

	result, err := h.service.List(c.Request().Context(), userID, notifications.ListOptions{
		Page:       page,
		Limit:      limit,
		UnreadOnly: c.QueryParam("unread") == "true",
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": result.Items},
		"meta":    pageMeta(result.Page, result.Limit, result.Total),
	})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	count, err := h.service.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one notification read. Repeating it is harmless.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return notificationError(err)
	}
	return success(c, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	updated, err := h.service.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"updated": updated})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return notificationError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteAll(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	deleted, err := h.service.DeleteAll(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"deleted": deleted})
}

func notificationError(err error) error {
	if errors.Is(err, notifications.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
