package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"deliveroo-backend/constants"
	"deliveroo-backend/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateTrackingNumber returns a public tracking number of the form
// DEL + 8 uppercase hex characters. Uniqueness is enforced by the caller
// (collision retry) and by the unique index on the column.
func GenerateTrackingNumber() string {
	return constants.TrackingPrefix + strings.ToUpper(uuid.NewString()[:8])
}

// UserIDFromClaims extracts the authenticated user's id from the JWT claims
// stashed by the auth middleware.
func UserIDFromClaims(c *fiber.Ctx) (uint, error) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return 0, errors.New("missing user claims")
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("user id not found in token")
	}
	return uint(id), nil
}

// RoleFromClaims extracts the authenticated user's role, or "" if absent.
func RoleFromClaims(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

var passwordField = regexp.MustCompile(`"password"\s*:\s*"[^"]*"`)

// sanitizeBody strips credentials out of a request body before it is logged.
func sanitizeBody(body string) string {
	return passwordField.ReplaceAllString(body, `"password":"[REDACTED]"`)
}

// CreateSanitizedLogEntry copies the request/response pair into a log entry
// safe to hand to the async logger after the handler returns.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := sanitizeBody(string(append([]byte(nil), c.Body()...)))
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	return types.LogEntry{
		Method:       method,
		URL:          url,
		RequestBody:  requestBody,
		ResponseBody: responseBody,
		StatusCode:   c.Response().StatusCode(),
		CreatedAt:    time.Now(),
	}
}
