package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lizzietrust/chat-backend/internal/token"
)

// UserIDKey is the fiber.Ctx locals key carrying the authenticated user id.
const UserIDKey = "user_id"

// Auth verifies the session JWT from the auth cookie or an Authorization
// bearer header and stores the user id in locals.
func Auth(tokens *token.Manager, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(cookieName)
		if raw == "" {
			header := c.Get(fiber.HeaderAuthorization)
			if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				raw = parts[1]
			}
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by Auth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
