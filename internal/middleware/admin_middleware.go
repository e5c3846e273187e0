package middleware

import (
	"log"
	"strings"

	"github.com/whitedevilpython/hackathon-registration/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminTokenCookie carries the admin JWT for browser sessions.
const AdminTokenCookie = "admin_token"

// AdminRequired is a Fiber middleware that checks for a valid admin JWT in the
// Authorization header or the admin cookie. It lets every request through
// when admin authentication is not configured.
func AdminRequired(authService *services.AdminAuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authService.Enabled() {
			return c.Next()
		}

		tokenString := c.Cookies(AdminTokenCookie)
		if authHeader := c.Get("Authorization"); authHeader != "" {
			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if !(len(parts) == 2 && parts[0] == "Bearer") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"status":  "error",
					"message": "Authorization header format must be 'Bearer <token>'",
				})
			}
			tokenString = parts[1]
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Admin login required",
			})
		}

		if err := authService.ValidateToken(tokenString); err != nil {
			log.Printf("Admin JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid or expired token",
			})
		}

		return c.Next()
	}
}
