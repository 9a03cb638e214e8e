package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationRouter(t *testing.T) (*gin.Engine, *notifications.Aggregator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	aggregator := notifications.NewAggregator()
	h := NewNotificationHandler(aggregator)

	router := gin.New()
	api := router.Group("/api/v1", stubAuth())
	api.GET("/notifications", h.List)
	api.GET("/notifications/unread", h.Unread)
	api.POST("/notifications/open", h.Open)

	return router, aggregator
}

func publishAt(a *notifications.Aggregator, id string, at time.Time) {
	a.Publish(notifications.Event{
		ID:          id,
		DisplayName: "Maria",
		QueueName:   "pharmacy",
		TimeIn:      &at,
	})
}

func TestNotificationPanelLifecycle(t *testing.T) {
	router, aggregator := newNotificationRouter(t)
	base := time.Now().Add(-time.Hour)
	publishAt(aggregator, "r1", base)

	w := doJSON(t, router, http.MethodGet, "/api/v1/notifications/unread", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unread":true`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/notifications", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Notifications []notifications.Notification `json:"notifications"`
		Count         int                          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Count)
	assert.Equal(t, "Maria registered in the PHARMACY queue.", listResp.Notifications[0].Message)

	// Opening the panel clears it for this viewer only.
	w = doJSON(t, router, http.MethodPost, "/api/v1/notifications/open", "viewer", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/notifications/unread", "viewer", nil)
	assert.Contains(t, w.Body.String(), `"unread":false`)

	w = doJSON(t, router, http.MethodGet, "/api/v1/notifications/unread", "other-viewer", nil)
	assert.Contains(t, w.Body.String(), `"unread":true`)
}

func TestNotificationsReappearAfterNewEvent(t *testing.T) {
	router, aggregator := newNotificationRouter(t)
	publishAt(aggregator, "r1", time.Now().Add(-time.Minute))

	doJSON(t, router, http.MethodPost, "/api/v1/notifications/open", "viewer", nil)
	publishAt(aggregator, "r2", time.Now().Add(time.Second))

	w := doJSON(t, router, http.MethodGet, "/api/v1/notifications", "viewer", nil)
	var listResp struct {
		Notifications []notifications.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Notifications, 1)
	assert.Equal(t, "r2", listResp.Notifications[0].ID)
}
