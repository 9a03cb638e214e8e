package models

import "time"

// ============================================================================
// USER MODEL
// ============================================================================

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Birthday    string `json:"birthday,omitempty"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	// The password hash and TOTP secret never leave the users table;
	// handlers scan them into locals instead of carrying them here.
	TOTPEnabled bool      `json:"totp_enabled"`
	LastLogin   time.Time `json:"lastLogin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ============================================================================
// AUTHENTICATION REQUESTS
// ============================================================================

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ============================================================================
// PROFILE
// ============================================================================

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Birthday    string `json:"birthday"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
}

// ============================================================================
// PASSWORD & 2FA
// ============================================================================

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"`
}

type VerifyTOTPRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}
