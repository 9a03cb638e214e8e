package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/utils"
)

// ==========================================
// AUTH HANDLER
// ==========================================

type AuthHandler struct {
	DB *sql.DB
}

func NewAuthHandler(db *sql.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

// Signup registers a new account and signs the user in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.Split(email, "@")[0]
	}

	var exists bool
	err := h.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		utils.SafeError("Failed to check existing user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.SafeError("Failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := models.User{
		ID:          uuid.New().String(),
		DisplayName: strings.TrimSpace(req.Name),
		Email:       email,
		Username:    username,
		CreatedAt:   time.Now(),
	}

	_, err = h.DB.Exec(`
		INSERT INTO users (id, display_name, email, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.DisplayName, user.Email, user.Username, hash, user.CreatedAt)
	if err != nil {
		utils.SafeError("Failed to insert user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	utils.LogAuthAction("signup", user.Email, true)
	h.respondWithTokens(c, http.StatusCreated, user)
}

// Login authenticates by email and password, with an optional TOTP step.
// Credential failures all map to the same message so the response does not
// reveal whether the email exists.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	var hash string
	var totpSecret sql.NullString
	err := h.DB.QueryRow(`
		SELECT id, display_name, email, username, COALESCE(photo_url, ''),
		       password_hash, totp_secret, totp_enabled, created_at
		FROM users WHERE email = $1`, email).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.Username, &user.PhotoURL,
		&hash, &totpSecret, &user.TOTPEnabled, &user.CreatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please check your credentials."})
		return
	}
	if err != nil {
		utils.SafeError("Failed to load user for login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	if !utils.CheckPassword(req.Password, hash) {
		utils.LogAuthAction("login", user.Email, false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Please check your credentials."})
		return
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Two-factor code required", "totp_required": true})
			return
		}
		valid, err := utils.VerifyTOTP(totpSecret.String, req.TOTPCode)
		if err != nil || !valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid two-factor code"})
			return
		}
	}

	now := time.Now()
	if _, err := h.DB.Exec(`UPDATE users SET last_login = $1 WHERE id = $2`, now, user.ID); err != nil {
		utils.SafeWarn("Failed to record last login: %v", err)
	}
	user.LastLogin = now

	utils.LogAuthAction("login", user.Email, true)
	h.respondWithTokens(c, http.StatusOK, user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var userID string
	var expiresAt time.Time
	err := h.DB.QueryRow(`
		SELECT user_id, expires_at FROM sessions WHERE refresh_token = $1`,
		req.RefreshToken).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows || (err == nil && time.Now().After(expiresAt)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}
	if err != nil {
		utils.SafeError("Failed to look up session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		return
	}

	var user models.User
	err = h.DB.QueryRow(`
		SELECT id, display_name, email, username, COALESCE(photo_url, ''), totp_enabled, created_at
		FROM users WHERE id = $1`, userID).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.Username, &user.PhotoURL,
		&user.TOTPEnabled, &user.CreatedAt)
	if err != nil {
		utils.SafeError("Failed to load user for refresh: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, req.RefreshToken); err != nil {
		utils.SafeWarn("Failed to rotate session: %v", err)
	}

	h.respondWithTokens(c, http.StatusOK, user)
}

// Logout revokes the caller's refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.RefreshToken != "" {
		if _, err := h.DB.Exec(`DELETE FROM sessions WHERE refresh_token = $1`, req.RefreshToken); err != nil {
			utils.SafeWarn("Failed to delete session: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ForgotPassword issues a reset token and mails the reset link. The
// response is the same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	genericResponse := gin.H{"message": "If that email is registered, a reset link has been sent"}

	var userID, displayName string
	err := h.DB.QueryRow(`SELECT id, display_name FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(req.Email))).Scan(&userID, &displayName)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusOK, genericResponse)
		return
	}
	if err != nil {
		utils.SafeError("Failed to look up user for reset: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	token, err := utils.GenerateRefreshToken()
	if err != nil {
		utils.SafeError("Failed to generate reset token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	_, err = h.DB.Exec(`
		INSERT INTO password_resets (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), userID, token, time.Now().Add(time.Hour), time.Now())
	if err != nil {
		utils.SafeError("Failed to store reset token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	if err := utils.SendPasswordResetEmail(req.Email, displayName, token); err != nil {
		utils.SafeWarn("Failed to send reset email: %v", err)
	}

	utils.LogAuthAction("password_reset_requested", req.Email, true)
	c.JSON(http.StatusOK, genericResponse)
}

// ResetPassword consumes a reset token and sets the new password. Every
// session of the account is revoked.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var userID string
	var expiresAt time.Time
	err := h.DB.QueryRow(`SELECT user_id, expires_at FROM password_resets WHERE token = $1`,
		req.Token).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows || (err == nil && time.Now().After(expiresAt)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired reset link"})
		return
	}
	if err != nil {
		utils.SafeError("Failed to look up reset token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.SafeError("Failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	if _, err := h.DB.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now(), userID); err != nil {
		utils.SafeError("Failed to update password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	if _, err := h.DB.Exec(`DELETE FROM password_resets WHERE user_id = $1`, userID); err != nil {
		utils.SafeWarn("Failed to clear reset tokens: %v", err)
	}
	if _, err := h.DB.Exec(`DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		utils.SafeWarn("Failed to revoke sessions: %v", err)
	}

	utils.LogAuthAction("password_reset", userID, true)
	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please sign in"})
}

func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, user models.User) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		utils.SafeError("Failed to generate access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		utils.SafeError("Failed to generate refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	_, err = h.DB.Exec(`
		INSERT INTO sessions (id, user_id, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), user.ID, refreshToken, time.Now().Add(30*24*time.Hour), time.Now())
	if err != nil {
		utils.SafeError("Failed to store session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(status, models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
