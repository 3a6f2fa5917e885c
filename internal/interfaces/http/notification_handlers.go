package http

import (
	"github.com/gin-gonic/gin"
)

// ListNotificationsRequest represents query parameters for the inbox
type ListNotificationsRequest struct {
	Unread bool `form:"unread"`
	Limit  int  `form:"limit"`
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	var req ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	list, err := h.services.Notifications.ListForUser(c.Request.Context(), actorFrom(c).UserID, req.Unread, clampLimit(req.Limit))
	if err != nil {
		h.respondError(c, "list_notifications", err)
		return
	}
	ok(c, list)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	if err := h.services.Notifications.MarkRead(c.Request.Context(), id, actorFrom(c).UserID); err != nil {
		h.respondError(c, "mark_read", err)
		return
	}
	ok(c, gin.H{"id": id})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.services.Notifications.MarkAllRead(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.respondError(c, "mark_all_read", err)
		return
	}
	ok(c, gin.H{"updated": n})
}
