package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/notifications"
)

// ==========================================
// NOTIFICATION HANDLER
// ==========================================

type NotificationHandler struct {
	Aggregator *notifications.Aggregator
}

func NewNotificationHandler(aggregator *notifications.Aggregator) *NotificationHandler {
	return &NotificationHandler{Aggregator: aggregator}
}

// List returns the notifications the caller has not cleared yet, newest
// first.
func (h *NotificationHandler) List(c *gin.Context) {
	visible := h.Aggregator.Visible(middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"notifications": visible, "count": len(visible)})
}

// Unread reports whether the bell badge should light up.
func (h *NotificationHandler) Unread(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unread": h.Aggregator.HasUnread(middleware.GetUserID(c))})
}

// Open marks the panel as opened, which clears everything currently
// visible for this caller. Events arriving afterwards show up again.
func (h *NotificationHandler) Open(c *gin.Context) {
	h.Aggregator.Open(middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Notifications cleared"})
}
