package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/access"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/services"
	"github.com/queuev/queuev-api/utils"
)

// ==========================================
// REGISTRATION HANDLER
// ==========================================

type RegistrationHandler struct {
	Registrations *services.RegistrationService
	Access        *access.Filter
}

func NewRegistrationHandler(registrations *services.RegistrationService, filter *access.Filter) *RegistrationHandler {
	return &RegistrationHandler{Registrations: registrations, Access: filter}
}

// CheckIn registers a visitor into a queue category. The endpoint is public:
// visitors arrive here from the queue's QR code without an account, and the
// uid is only recorded when a signed-in user checks in.
func (h *RegistrationHandler) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	registration, err := h.Registrations.CheckIn(c.Request.Context(), req, middleware.GetUserID(c))
	switch {
	case errors.Is(err, services.ErrQueueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Queue not found"})
		return
	case errors.Is(err, services.ErrQueueExpired):
		c.JSON(http.StatusGone, gin.H{"error": "This queue is no longer accepting registrations"})
		return
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	case errors.Is(err, services.ErrCategoryFull):
		c.JSON(http.StatusConflict, gin.H{"error": "This category is full"})
		return
	case err != nil:
		utils.SafeError("Failed to check in: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
		return
	}

	c.JSON(http.StatusCreated, registration)
}

// List returns the registrations in queues the caller can see, either as
// a creator or as invited staff. A caller with no accessible queues gets an
// explicit empty state rather than an empty list.
func (h *RegistrationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)

	visible, err := h.visibleRegistrations(c)
	if errors.Is(err, access.ErrNoAccessibleQueues) {
		c.JSON(http.StatusOK, gin.H{
			"registrations":        []models.Registration{},
			"count":                0,
			"no_accessible_queues": true,
		})
		return
	}
	if err != nil {
		utils.SafeError("Failed to list registrations for %s: %v", utils.MaskID(userID), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registrations"})
		return
	}

	// The dashboard's category tabs pass ?category= to narrow the list.
	if category := c.Query("category"); category != "" {
		visible = access.FilterByCategory(visible, []string{category})
	}

	utils.SafeDebug("Listed %d registrations for %s", len(visible), utils.MaskEmail(email))
	c.JSON(http.StatusOK, gin.H{"registrations": visible, "count": len(visible)})
}

// Export streams the caller's visible registrations as a CSV download.
func (h *RegistrationHandler) Export(c *gin.Context) {
	visible, err := h.visibleRegistrations(c)
	if errors.Is(err, access.ErrNoAccessibleQueues) {
		visible = nil
	} else if err != nil {
		utils.SafeError("Failed to export registrations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export registrations"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="registrations.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Queue No.", "Name", "Category", "Queue", "Time In", "Status"})
	for _, r := range visible {
		timeIn := ""
		if r.TimeIn != nil {
			timeIn = r.TimeIn.Format("2006-01-02 15:04:05")
		}
		_ = w.Write([]string{
			strconv.Itoa(r.Index1),
			r.Name,
			r.Type,
			r.QueueID,
			timeIn,
			r.Status,
		})
	}
	w.Flush()
}

// Delete removes one registration from a queue the caller can see.
func (h *RegistrationHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	accessible, err := h.Access.AccessibleCategories(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserEmail(c))
	if err != nil {
		utils.SafeError("Failed to resolve access: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete registration"})
		return
	}
	if len(accessible) == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not manage any queues"})
		return
	}

	if err := h.Registrations.Delete(c.Request.Context(), id); err != nil {
		utils.SafeError("Failed to delete registration: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete registration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Registration %s removed", id)})
}

func (h *RegistrationHandler) visibleRegistrations(c *gin.Context) ([]models.Registration, error) {
	all, err := h.Registrations.List(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return h.Access.VisibleRegistrations(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserEmail(c), all)
}
