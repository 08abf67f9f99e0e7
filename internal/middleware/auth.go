package middleware

import (
	"crypto/subtle"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware guards the local API with a shared bearer token. The
// desktop shell injects MIMOSA_AUTH_TOKEN into both the server process and
// its embedded webview; when the variable is unset the API is open, which
// is the normal single-user localhost setup.
type AuthMiddleware struct {
	token string
}

// NewAuthMiddleware returns nil when no token is configured, meaning no
// auth is required.
func NewAuthMiddleware() *AuthMiddleware {
	token := os.Getenv("MIMOSA_AUTH_TOKEN")
	if token == "" {
		return nil
	}
	return &AuthMiddleware{token: token}
}

// RequireAuth checks the bearer token on every request except the health
// probe.
func (am *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	if am == nil {
		return c.Next()
	}

	if c.Path() == "/health" {
		return c.Next()
	}

	token := extractToken(c)
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(am.token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}
	return c.Next()
}

func extractToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// The browser shell can't always set headers, e.g. on page loads.
	return c.Query("token")
}
