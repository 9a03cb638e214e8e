package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/notifications"
	"github.com/queuev/queuev-api/utils"
)

// ==========================================
// WEBSOCKET HANDLER
// ==========================================

// WSHandler pushes live notifications to connected dashboards. Each socket
// is tagged with its user id so a viewer who already cleared the panel is
// not re-notified through a stale connection.
type WSHandler struct {
	M          *melody.Melody
	Aggregator *notifications.Aggregator
}

func NewWSHandler(aggregator *notifications.Aggregator) *WSHandler {
	m := melody.New()

	h := &WSHandler{M: m, Aggregator: aggregator}

	m.HandleConnect(func(s *melody.Session) {
		userID, _ := s.Get("userID")
		utils.LogWebSocket("connected", toString(userID))
	})

	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get("userID")
		utils.LogWebSocket("disconnected", toString(userID))
	})

	return h
}

// Serve upgrades the request to a websocket.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"userID": userID,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open websocket"})
	}
}

// Run bridges the aggregator's feed onto the websocket until ctx is done.
// Blocks, meant to be started in its own goroutine.
func (h *WSHandler) Run(ctx context.Context) {
	feed, stop := h.Aggregator.Subscribe()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-feed:
			if !ok {
				return
			}
			h.broadcast(n)
		}
	}
}

func (h *WSHandler) broadcast(n notifications.Notification) {
	payload, err := json.Marshal(gin.H{"type": "notification", "notification": n})
	if err != nil {
		utils.SafeWarn("Failed to encode notification: %v", err)
		return
	}

	err = h.M.BroadcastFilter(payload, func(s *melody.Session) bool {
		// Suppress sockets whose viewer cleared the panel after this
		// event was created.
		userID, _ := s.Get("userID")
		for _, visible := range h.Aggregator.Visible(toString(userID)) {
			if visible.ID == n.ID {
				return true
			}
		}
		return false
	})
	if err != nil {
		utils.SafeWarn("Failed to broadcast notification: %v", err)
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
