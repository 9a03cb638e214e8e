package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/handlers"
	"github.com/queuev/queuev-api/middleware"
)

// ============================================================================
// ROUTE REGISTRATION
// ============================================================================

// SetupAuthRoutes wires the public authentication endpoints.
func SetupAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, rateLimit gin.HandlerFunc) {
	auth := api.Group("/auth")
	auth.Use(rateLimit)
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}
}

// SetupUserRoutes wires profile and account management.
func SetupUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	users := api.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", h.GetProfile)
		users.PATCH("/me", h.UpdateProfile)
		users.POST("/me/password", h.ChangePassword)
		users.POST("/me/totp/setup", h.SetupTOTP)
		users.POST("/me/totp/verify", h.VerifyTOTP)
		users.POST("/me/totp/disable", h.DisableTOTP)
		users.DELETE("/me", h.DeleteAccount)
	}
}

// SetupQueueRoutes wires the creation wizard and queue management.
func SetupQueueRoutes(api *gin.RouterGroup, h *handlers.QueueHandler) {
	// The check-in page loads the queue without signing in.
	api.GET("/queues/:id", h.GetQueue)

	queues := api.Group("/queues")
	queues.Use(middleware.AuthMiddleware())
	{
		queues.GET("", h.GetUserQueues)
		queues.DELETE("/:id", h.DeleteQueue)
		queues.GET("/:id/qr", h.GetQueueQR)
	}

	drafts := api.Group("/queues/draft")
	drafts.Use(middleware.AuthMiddleware())
	{
		drafts.GET("", h.GetDraft)
		drafts.PATCH("", h.UpdateDraft)
		drafts.DELETE("", h.DiscardDraft)
		drafts.POST("/categories", h.AddCategory)
		drafts.DELETE("/categories/:index", h.RemoveCategory)
		drafts.POST("/categories/:index/staff", h.InviteStaff)
		drafts.POST("/columns", h.AddFormColumn)
		drafts.DELETE("/columns/:index", h.RemoveFormColumn)
		drafts.POST("/advance", h.Advance)
		drafts.POST("/back", h.Back)
		drafts.POST("/submit", h.Submit)
	}
}

// SetupInvitationRoutes wires staff invitation review.
func SetupInvitationRoutes(api *gin.RouterGroup, h *handlers.InvitationHandler) {
	invitations := api.Group("/invitations")
	invitations.Use(middleware.AuthMiddleware())
	{
		invitations.GET("", h.GetPending)
		invitations.POST("/:id/accept", h.Accept)
		invitations.POST("/:id/reject", h.Reject)
	}
}

// SetupRegistrationRoutes wires check-in and the registrations dashboard.
func SetupRegistrationRoutes(api *gin.RouterGroup, h *handlers.RegistrationHandler) {
	// Visitors check in straight from the QR code, no account needed.
	api.POST("/check-in", h.CheckIn)

	registrations := api.Group("/registrations")
	registrations.Use(middleware.AuthMiddleware())
	{
		registrations.GET("", h.List)
		registrations.GET("/export", h.Export)
		registrations.DELETE("/:id", h.Delete)
	}
}

// SetupNotificationRoutes wires the bell badge and panel.
func SetupNotificationRoutes(api *gin.RouterGroup, h *handlers.NotificationHandler) {
	notifications := api.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.List)
		notifications.GET("/unread", h.Unread)
		notifications.POST("/open", h.Open)
	}
}

// SetupWebSocketRoutes wires the live notification feed.
func SetupWebSocketRoutes(api *gin.RouterGroup, h *handlers.WSHandler) {
	ws := api.Group("/ws")
	ws.Use(middleware.AuthMiddleware())
	{
		ws.GET("/notifications", h.Serve)
	}
}
