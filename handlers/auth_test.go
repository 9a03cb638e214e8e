package handlers

import (
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/queuev/queuev-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewAuthHandler(db)
	router := gin.New()
	router.POST("/auth/login", h.Login)
	router.POST("/auth/forgot-password", h.ForgotPassword)
	router.POST("/auth/reset-password", h.ResetPassword)
	return router, mock
}

func TestLoginDoesNotLeakSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router, mock := newAuthRouter(t)

	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("maria@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "display_name", "email", "username", "photo_url",
			"password_hash", "totp_secret", "totp_enabled", "created_at",
		}).AddRow("u1", "Maria", "maria@example.com", "maria", "",
			hash, nil, false, time.Now()))
	mock.ExpectExec("UPDATE users SET last_login").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sessions").WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, router, http.MethodPost, "/auth/login", "",
		gin.H{"email": "maria@example.com", "password": "hunter22"})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "access_token")
	assert.Contains(t, body, "refresh_token")
	assert.NotContains(t, body, hash, "password hash must never reach the response")
	assert.NotContains(t, body, "password_hash")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router, mock := newAuthRouter(t)

	hash, err := utils.HashPassword("hunter22")
	require.NoError(t, err)

	mock.ExpectQuery("FROM users WHERE email").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "display_name", "email", "username", "photo_url",
			"password_hash", "totp_secret", "totp_enabled", "created_at",
		}).AddRow("u1", "Maria", "maria@example.com", "maria", "",
			hash, nil, false, time.Now()))

	w := doJSON(t, router, http.MethodPost, "/auth/login", "",
		gin.H{"email": "maria@example.com", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Please check your credentials.")
}

func TestForgotPasswordIssuesToken(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT id, display_name FROM users WHERE email").
		WithArgs("maria@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name"}).AddRow("u1", "Maria"))
	mock.ExpectExec("INSERT INTO password_resets").WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, router, http.MethodPost, "/auth/forgot-password", "",
		gin.H{"email": "maria@example.com"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "If that email is registered")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestForgotPasswordUnknownEmailSameResponse(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT id, display_name FROM users WHERE email").
		WillReturnError(sql.ErrNoRows)

	w := doJSON(t, router, http.MethodPost, "/auth/forgot-password", "",
		gin.H{"email": "nobody@example.com"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "If that email is registered")
	assert.NoError(t, mock.ExpectationsWereMet(), "no token may be stored for unknown emails")
}

func TestResetPasswordConsumesTokenAndRevokesSessions(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT user_id, expires_at FROM password_resets WHERE token").
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow("u1", time.Now().Add(30*time.Minute)))
	mock.ExpectExec("UPDATE users SET password_hash").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM password_resets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 2))

	w := doJSON(t, router, http.MethodPost, "/auth/reset-password", "",
		gin.H{"token": "tok-1", "new_password": "brand-new-pw"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	router, mock := newAuthRouter(t)

	mock.ExpectQuery("SELECT user_id, expires_at FROM password_resets WHERE token").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at"}).
			AddRow("u1", time.Now().Add(-time.Minute)))

	w := doJSON(t, router, http.MethodPost, "/auth/reset-password", "",
		gin.H{"token": "tok-stale", "new_password": "brand-new-pw"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "an expired token must change nothing")
}
