package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/middleware"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/utils"
)

// ==========================================
// USER HANDLER
// ==========================================

type UserHandler struct {
	DB *sql.DB
}

func NewUserHandler(db *sql.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var user models.User
	var lastLogin sql.NullTime
	err := h.DB.QueryRow(`
		SELECT id, email, display_name, username, COALESCE(photo_url, ''),
		       COALESCE(birthday, ''), COALESCE(address, ''), COALESCE(phone, ''),
		       totp_enabled, last_login, created_at
		FROM users WHERE id = $1`, userID).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.Username, &user.PhotoURL,
		&user.Birthday, &user.Address, &user.Phone,
		&user.TOTPEnabled, &lastLogin, &user.CreatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		utils.SafeError("Failed to load profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a partial update to the caller's profile fields.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	_, err := h.DB.Exec(`
		UPDATE users SET
			display_name = COALESCE(NULLIF($1, ''), display_name),
			username     = COALESCE(NULLIF($2, ''), username),
			birthday     = COALESCE(NULLIF($3, ''), birthday),
			address      = COALESCE(NULLIF($4, ''), address),
			phone        = COALESCE(NULLIF($5, ''), phone),
			updated_at   = $6
		WHERE id = $7`,
		strings.TrimSpace(req.DisplayName), strings.TrimSpace(req.Username),
		req.Birthday, req.Address, req.Phone, time.Now(), userID)
	if err != nil {
		utils.SafeError("Failed to update profile: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	h.GetProfile(c)
}

// ChangePassword verifies the current password before setting a new one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var hash string
	if err := h.DB.QueryRow(`SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash); err != nil {
		utils.SafeError("Failed to load password hash: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	if !utils.CheckPassword(req.CurrentPassword, hash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	newHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.SafeError("Failed to hash new password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	if _, err := h.DB.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		newHash, time.Now(), userID); err != nil {
		utils.SafeError("Failed to update password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}

	// Changing the password revokes every other session.
	if _, err := h.DB.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		utils.SafeWarn("Failed to revoke sessions: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// SetupTOTP generates a new TOTP secret. The secret stays disabled until the
// user confirms a code through VerifyTOTP.
func (h *UserHandler) SetupTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetUserEmail(c)

	secret, url, err := utils.GenerateTOTPSecret(email)
	if err != nil {
		utils.SafeError("Failed to generate TOTP secret: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up two-factor auth"})
		return
	}

	if _, err := h.DB.Exec(`UPDATE users SET totp_secret = $1, totp_enabled = FALSE WHERE id = $2`,
		secret, userID); err != nil {
		utils.SafeError("Failed to store TOTP secret: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up two-factor auth"})
		return
	}

	c.JSON(http.StatusOK, models.TOTPSetupResponse{Secret: secret, QRCode: url})
}

// VerifyTOTP confirms a code against the pending secret and enables 2FA.
func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var secret sql.NullString
	if err := h.DB.QueryRow(`SELECT totp_secret FROM users WHERE id = $1`, userID).Scan(&secret); err != nil {
		utils.SafeError("Failed to load TOTP secret: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}
	if !secret.Valid || secret.String == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Two-factor setup has not been started"})
		return
	}

	valid, err := utils.VerifyTOTP(secret.String, req.Code)
	if err != nil || !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid two-factor code"})
		return
	}

	if _, err := h.DB.Exec(`UPDATE users SET totp_enabled = TRUE WHERE id = $1`, userID); err != nil {
		utils.SafeError("Failed to enable TOTP: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication enabled"})
}

// DisableTOTP turns 2FA off after checking the caller's password.
func (h *UserHandler) DisableTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var hash string
	if err := h.DB.QueryRow(`SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash); err != nil {
		utils.SafeError("Failed to load password hash: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable two-factor auth"})
		return
	}
	if !utils.CheckPassword(req.Password, hash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	if _, err := h.DB.Exec(`UPDATE users SET totp_secret = NULL, totp_enabled = FALSE WHERE id = $1`,
		userID); err != nil {
		utils.SafeError("Failed to disable TOTP: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable two-factor auth"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Two-factor authentication disabled"})
}

// DeleteAccount removes the caller's account. Queues they created cascade
// through the schema's foreign keys.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var hash string
	if err := h.DB.QueryRow(`SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash); err != nil {
		utils.SafeError("Failed to load password hash: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}
	if !utils.CheckPassword(req.Password, hash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM users WHERE id = $1`, userID); err != nil {
		utils.SafeError("Failed to delete account: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	utils.SafeInfo("🗑️ Account deleted: %s", utils.MaskID(userID))
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
