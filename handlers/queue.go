package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/draft"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/services"
	"github.com/queuev/queuev-api/utils"
)

// ==========================================
// QUEUE HANDLER
// ==========================================

// QueueHandler serves both the creation wizard (backed by the draft store)
// and the management endpoints for persisted queues.
type QueueHandler struct {
	Drafts *draft.Store
	Queues *services.QueueService
}

func NewQueueHandler(drafts *draft.Store, queues *services.QueueService) *QueueHandler {
	return &QueueHandler{Drafts: drafts, Queues: queues}
}

// The check-in URL embedded in QR payloads points at the frontend.
func appBaseURL() string {
	if base := os.Getenv("FRONTEND_URL"); base != "" {
		return base
	}
	return "http://localhost:3000"
}

// ------------------------------------------
// Draft wizard
// ------------------------------------------

// GetDraft returns the caller's in-progress queue draft, creating a blank
// one on first access.
func (h *QueueHandler) GetDraft(c *gin.Context) {
	sess := h.Drafts.Get(c.Request.Context(), middleware.GetUserID(c))
	c.JSON(http.StatusOK, sess)
}

// UpdateDraft merges the provided fields into the draft.
func (h *QueueHandler) UpdateDraft(c *gin.Context) {
	var req models.DraftUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sess := h.Drafts.Update(c.Request.Context(), middleware.GetUserID(c), req)
	c.JSON(http.StatusOK, sess)
}

// AddCategory appends a category to the draft. Omitted limits fall back to
// the defaults.
func (h *QueueHandler) AddCategory(c *gin.Context) {
	var req models.AddCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sess := h.Drafts.AddCategory(c.Request.Context(), middleware.GetUserID(c), &req)
	c.JSON(http.StatusOK, sess)
}

// RemoveCategory deletes the category at the given position.
func (h *QueueHandler) RemoveCategory(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category index"})
		return
	}

	sess, err := h.Drafts.RemoveCategory(c.Request.Context(), middleware.GetUserID(c), index)
	if errors.Is(err, draft.ErrCategoryOutOfRange) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// InviteStaff records a staff email on one draft category.
func (h *QueueHandler) InviteStaff(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category index"})
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sess, err := h.Drafts.InviteStaffEmail(c.Request.Context(), middleware.GetUserID(c), index, req.Email)
	if errors.Is(err, draft.ErrCategoryOutOfRange) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// AddFormColumn appends a check-in form column to the draft.
func (h *QueueHandler) AddFormColumn(c *gin.Context) {
	var req models.AddFormColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sess := h.Drafts.AddFormColumn(c.Request.Context(), middleware.GetUserID(c), req.Column)
	c.JSON(http.StatusOK, sess)
}

// RemoveFormColumn deletes a form column. The first column is the check-in
// name field and cannot be removed.
func (h *QueueHandler) RemoveFormColumn(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column index"})
		return
	}
	if index == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The name column cannot be removed"})
		return
	}

	sess, err := h.Drafts.RemoveFormColumn(c.Request.Context(), middleware.GetUserID(c), index)
	if errors.Is(err, draft.ErrColumnOutOfRange) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Form column not found"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Advance moves the wizard to the next step once the current one is filled in.
func (h *QueueHandler) Advance(c *gin.Context) {
	sess, err := h.Drafts.Advance(c.Request.Context(), middleware.GetUserID(c))
	switch {
	case errors.Is(err, draft.ErrStepIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in the queue name and address first"})
		return
	case errors.Is(err, draft.ErrWizardDone):
		c.JSON(http.StatusConflict, gin.H{"error": "The wizard is already on its last step"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// Back moves the wizard one step backwards.
func (h *QueueHandler) Back(c *gin.Context) {
	sess := h.Drafts.Back(c.Request.Context(), middleware.GetUserID(c))
	c.JSON(http.StatusOK, sess)
}

// DiscardDraft throws the in-progress draft away.
func (h *QueueHandler) DiscardDraft(c *gin.Context) {
	h.Drafts.Discard(c.Request.Context(), middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded"})
}

// Submit validates and persists the draft, fires staff invitations, and
// returns the check-in URL for the new queue's QR code.
func (h *QueueHandler) Submit(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.Drafts.CanSubmit(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please complete the category step before submitting"})
		return
	}

	queue, err := h.Drafts.Submit(c.Request.Context(), userID)
	switch {
	case errors.Is(err, draft.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in to create a queue"})
		return
	case errors.Is(err, draft.ErrQueueNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Queue name is required"})
		return
	case errors.Is(err, draft.ErrAddressRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address is required"})
		return
	case errors.Is(err, draft.ErrDuplicateCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category names must be unique"})
		return
	case err != nil:
		utils.SafeError("Failed to submit queue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create queue"})
		return
	}

	c.JSON(http.StatusCreated, models.SubmitResponse{
		QueueID:    queue.QueueID,
		CheckInURL: fmt.Sprintf("%s/check-in?queue=%s", appBaseURL(), queue.QueueID),
	})
}

// ------------------------------------------
// Persisted queues
// ------------------------------------------

// GetUserQueues lists the queues the caller created, newest first.
func (h *QueueHandler) GetUserQueues(c *gin.Context) {
	queues, err := h.Queues.GetUserQueues(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.SafeError("Failed to list queues: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load queues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"queues": queues, "count": len(queues)})
}

// GetQueue returns one queue with its categories. Public so the check-in
// page can render the form without signing in.
func (h *QueueHandler) GetQueue(c *gin.Context) {
	queue, err := h.Queues.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.SafeError("Failed to load queue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load queue"})
		return
	}
	if queue == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Queue not found"})
		return
	}

	c.JSON(http.StatusOK, queue)
}

// GetQueueQR returns the payload the frontend encodes into the queue's
// QR code.
func (h *QueueHandler) GetQueueQR(c *gin.Context) {
	queueID := c.Param("id")

	queue, err := h.Queues.GetByID(c.Request.Context(), queueID)
	if err != nil {
		utils.SafeError("Failed to load queue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load queue"})
		return
	}
	if queue == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Queue not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"queue_id":     queue.QueueID,
		"queue_name":   queue.QueueName,
		"check_in_url": fmt.Sprintf("%s/check-in?queue=%s", appBaseURL(), queue.QueueID),
	})
}

// DeleteQueue removes a queue the caller owns.
func (h *QueueHandler) DeleteQueue(c *gin.Context) {
	userID := middleware.GetUserID(c)
	queueID := c.Param("id")

	err := h.Queues.DeleteQueue(c.Request.Context(), queueID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Queue not found"})
		return
	}
	if err != nil {
		utils.SafeError("Failed to delete queue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete queue"})
		return
	}

	utils.LogQueueAction("deleted", queueID, userID)
	c.JSON(http.StatusOK, gin.H{"message": "Queue deleted"})
}
