package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deliveroo-backend/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": 1,
		"role":    role,
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/protected", handler, func(c *fiber.Ctx) error {
		claims := c.Locals("user").(jwt.MapClaims)
		return c.JSON(fiber.Map{"role": claims["role"]})
	})
	return app
}

func TestRequireAuthBearerHeader(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAuth())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user", time.Hour))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAuthCookieFallback(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAuth())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access", Value: signToken(t, testSecret, "user", time.Hour)})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAuthMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAuth())

	resp, err := app.Test(httptest.NewRequest("GET", "/protected", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAuth())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAuth())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "user", time.Hour))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAuth())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user", -time.Hour))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAdmin())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "admin", time.Hour))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdminRejectsUserRole(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	app := protectedApp(middleware.RequireAdmin())

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user", time.Hour))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
