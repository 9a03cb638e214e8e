package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/draft"
	"github.com/queuev/queuev-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	created []models.Queue
}

func (f *fakePersister) CreateQueue(_ context.Context, q models.Queue) (models.Queue, error) {
	q.QueueID = "abcde12345-1700000000000"
	for i := range q.Categories {
		q.Categories[i].QueueID = q.QueueID
	}
	f.created = append(f.created, q)
	return q, nil
}

// stubAuth plays the role of the auth middleware: the test caller passes its
// identity in a header.
func stubAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("userID", id)
			c.Set("userEmail", id+"@example.com")
		}
		c.Next()
	}
}

func newWizardRouter(t *testing.T) (*gin.Engine, *fakePersister) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	persister := &fakePersister{}
	h := NewQueueHandler(draft.NewStore(draft.NewMemoryCache(), persister, nil), nil)

	router := gin.New()
	api := router.Group("/api/v1", stubAuth())
	api.GET("/queues/draft", h.GetDraft)
	api.PATCH("/queues/draft", h.UpdateDraft)
	api.POST("/queues/draft/categories", h.AddCategory)
	api.DELETE("/queues/draft/categories/:index", h.RemoveCategory)
	api.POST("/queues/draft/categories/:index/staff", h.InviteStaff)
	api.POST("/queues/draft/columns", h.AddFormColumn)
	api.DELETE("/queues/draft/columns/:index", h.RemoveFormColumn)
	api.POST("/queues/draft/advance", h.Advance)
	api.POST("/queues/draft/submit", h.Submit)

	return router, persister
}

func doJSON(t *testing.T, router *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetDraftStartsBlank(t *testing.T) {
	router, _ := newWizardRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/queues/draft", "user-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var sess draft.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, draft.StepDetails, sess.Step)
	assert.Equal(t, []string{"FULL NAME"}, sess.Queue.FormColumns)
}

func TestAdvanceRejectsIncompleteDetails(t *testing.T) {
	router, _ := newWizardRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/advance", "user-1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "queue name and address")
}

func TestFirstFormColumnCannotBeRemoved(t *testing.T) {
	router, _ := newWizardRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/queues/draft/columns/0", "user-1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name column")
}

func TestRemoveCategoryOutOfRangeIs404(t *testing.T) {
	router, _ := newWizardRouter(t)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/queues/draft/categories/2", "user-1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInviteStaffRejectsBadEmail(t *testing.T) {
	router, _ := newWizardRouter(t)
	doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/categories", "user-1",
		models.AddCategoryRequest{Name: "Walk-in"})

	w := doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/categories/0/staff", "user-1",
		gin.H{"email": "not-an-email"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRequiresReachingCategoriesStep(t *testing.T) {
	router, _ := newWizardRouter(t)
	doJSON(t, router, http.MethodPatch, "/api/v1/queues/draft", "user-1", gin.H{
		"queueName": "City Clinic",
		"address":   "12 Main St",
	})

	w := doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/submit", "user-1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "category step")
}

func TestWizardEndToEnd(t *testing.T) {
	router, persister := newWizardRouter(t)
	user := "user-1"

	w := doJSON(t, router, http.MethodPatch, "/api/v1/queues/draft", user, gin.H{
		"queueName": "City Clinic",
		"address":   "12 Main St",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Step 1 -> 2 -> 3.
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/advance", user, nil).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/advance", user, nil).Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/categories", user,
		models.AddCategoryRequest{Name: "Walk-in", Limit: "25"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/submit", user, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abcde12345-1700000000000", resp.QueueID)
	assert.Contains(t, resp.CheckInURL, "queue="+resp.QueueID)

	require.Len(t, persister.created, 1)
	created := persister.created[0]
	assert.Equal(t, user, created.CreatedBy)
	require.Len(t, created.Categories, 1)
	assert.Equal(t, "Walk-in", created.Categories[0].Name)
	assert.Equal(t, "25", created.Categories[0].Limit)

	// The draft is gone after submission.
	w = doJSON(t, router, http.MethodGet, "/api/v1/queues/draft", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sess draft.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Empty(t, sess.Queue.QueueName)
}

func TestSubmitWithoutUserIsRejected(t *testing.T) {
	router, _ := newWizardRouter(t)

	// An anonymous caller holds a fresh draft stuck at step 1, so the
	// submit gate rejects before the store's auth check is reached.
	w := doJSON(t, router, http.MethodPost, "/api/v1/queues/draft/submit", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftsAreIsolatedPerUser(t *testing.T) {
	router, _ := newWizardRouter(t)

	doJSON(t, router, http.MethodPatch, "/api/v1/queues/draft", "alice", gin.H{"queueName": "Alice's Queue"})

	w := doJSON(t, router, http.MethodGet, "/api/v1/queues/draft", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sess draft.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Empty(t, sess.Queue.QueueName)
}
