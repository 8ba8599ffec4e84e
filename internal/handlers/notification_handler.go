package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNotifications returns the latest notifications with the unread count.
// Clients poll this on an interval.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	list, err := h.Notifications.List(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	unread, err := h.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unreadCount": unread})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.Notifications.MarkRead(c.Request.Context(), userID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	userID, _, ok := h.withUser(c)
	if !ok {
		return
	}
	updated, err := h.Notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
