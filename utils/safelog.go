// utils/safelog.go
// ============================================================================
// SAFE LOGGING - Masks personal data in production
// ============================================================================
// Logging helpers that automatically mask emails, phone numbers and ids
// when the app runs in production mode.
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

var (
	// IsProduction decides whether sensitive data gets masked
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	// LogLevel filters log output (DEBUG, INFO, WARN, ERROR)
	LogLevel = getLogLevel()
)

// Log levels
const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ============================================================================
// MASKING PATTERNS
// ============================================================================

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	phoneRegex = regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{2,4}\)?[\s.-]?\d{2,4}[\s.-]?\d{2,4}`)

	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

	// Queue ids: ten alphanumerics, dash, millisecond timestamp
	queueIDRegex = regexp.MustCompile(`\b[A-Za-z0-9]{10}-\d{13}\b`)
)

// ============================================================================
// MASKING HELPERS
// ============================================================================

// MaskString masks sensitive data inside an arbitrary string
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := emailRegex.ReplaceAllString(input, "***@***.***")
	result = phoneRegex.ReplaceAllString(result, "***-***")
	result = uuidRegex.ReplaceAllStringFunc(result, shortenID)
	result = queueIDRegex.ReplaceAllStringFunc(result, shortenID)

	return result
}

func shortenID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return "***"
}

// MaskID partially masks an id (keeps the first 8 characters)
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

// MaskEmail masks an email address
func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// ============================================================================
// SAFE LOGGING FUNCTIONS
// ============================================================================

// SafeLog logs a message with sensitive data masked
func SafeLog(format string, args ...interface{}) {
	log.Print(MaskString(fmt.Sprintf(format, args...)))
}

// SafeDebug logs a debug message (only when LOG_LEVEL=DEBUG)
func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	log.Printf("[DEBUG] %s", MaskString(fmt.Sprintf(format, args...)))
}

// SafeInfo logs an informational message
func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	log.Printf("[INFO] %s", MaskString(fmt.Sprintf(format, args...)))
}

// SafeWarn logs a warning
func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	log.Printf("[WARN] %s", MaskString(fmt.Sprintf(format, args...)))
}

// SafeError logs an error
func SafeError(format string, args ...interface{}) {
	log.Printf("[ERROR] %s", MaskString(fmt.Sprintf(format, args...)))
}

// ============================================================================
// DOMAIN-SPECIFIC LOGGING
// ============================================================================

// LogQueueAction logs a queue operation without exposing ids in production
func LogQueueAction(action string, queueID string, userID string) {
	log.Printf("[Queue] %s - Queue: %s User: %s",
		action,
		MaskID(queueID),
		MaskID(userID))
}

// LogInvitationAction logs an invitation status change
func LogInvitationAction(action string, invitationID string, email string) {
	log.Printf("[Invitation] %s - Invitation: %s Email: %s",
		action,
		MaskID(invitationID),
		MaskEmail(email))
}

// LogAuthAction logs an authentication attempt
func LogAuthAction(action string, email string, success bool) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	log.Printf("[Auth] %s - Email: %s Status: %s",
		action,
		MaskEmail(email),
		status)
}

// LogAPIRequest logs an API request (ids in paths are masked in production)
func LogAPIRequest(method string, path string, userID string, statusCode int, duration string) {
	maskedPath := path
	if IsProduction {
		maskedPath = uuidRegex.ReplaceAllStringFunc(path, shortenID)
		maskedPath = queueIDRegex.ReplaceAllStringFunc(maskedPath, shortenID)
	}
	log.Printf("[API] %s %s - User: %s Status: %d Duration: %s",
		method,
		maskedPath,
		MaskID(userID),
		statusCode,
		duration)
}

// LogWebSocket logs a websocket event
func LogWebSocket(action string, userID string) {
	log.Printf("[WS] %s - User: %s", action, MaskID(userID))
}

// ============================================================================
// UTILITIES
// ============================================================================

// GetEnvMode returns the current environment mode
func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

// LogStartup logs application startup information
func LogStartup(appName string, version string, port string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: Sensitive data will be masked in logs")
	}
}
