package middleware

import (
	"strings"

	"gallery/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// userInfoKey is the Fiber locals key holding the caller's *services.Claims.
const userInfoKey = "userInfo"

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(validator TokenValidator, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		// Expected format: "Bearer <token>"
		authHeader := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			return deny(c, fiber.StatusUnauthorized, "Access Denied. No token provided. Please login to continue")
		}

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("JWT validation failed", zap.String("path", c.Path()), zap.Error(err))
			return deny(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(userInfoKey, claims)

		return c.Next()
	}
}

// AdminOnly lets through callers whose token carries the admin role. It
// must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := UserInfo(c)
		if !ok || !claims.Role.IsAdmin() {
			return deny(c, fiber.StatusForbidden, "Access denied! Admin rights required.")
		}
		return c.Next()
	}
}

// UserInfo returns the claims stored by AuthRequired.
func UserInfo(c *fiber.Ctx) (*services.Claims, bool) {
	claims, ok := c.Locals(userInfoKey).(*services.Claims)
	return claims, ok && claims != nil
}

func deny(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
