package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/services"
	"github.com/queuev/queuev-api/utils"
)

// ==========================================
// INVITATION HANDLER
// ==========================================

type InvitationHandler struct {
	Invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{Invitations: invitations}
}

// GetPending lists the caller's pending invitations, newest first.
func (h *InvitationHandler) GetPending(c *gin.Context) {
	invitations, err := h.Invitations.GetPending(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		utils.SafeError("Failed to list invitations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load invitations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": invitations, "count": len(invitations)})
}

// Accept marks the invitation accepted and seats the staff member in the
// queue as a pending registration.
func (h *InvitationHandler) Accept(c *gin.Context) {
	err := h.Invitations.Accept(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	switch {
	case errors.Is(err, services.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	case errors.Is(err, services.ErrInvitationHandled):
		c.JSON(http.StatusConflict, gin.H{"error": "This invitation has already been handled"})
		return
	case err != nil:
		utils.SafeError("Failed to accept invitation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted"})
}

// Reject declines the invitation.
func (h *InvitationHandler) Reject(c *gin.Context) {
	err := h.Invitations.Reject(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	switch {
	case errors.Is(err, services.ErrInvitationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	case errors.Is(err, services.ErrInvitationHandled):
		c.JSON(http.StatusConflict, gin.H{"error": "This invitation has already been handled"})
		return
	case err != nil:
		utils.SafeError("Failed to reject invitation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject invitation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation rejected"})
}
