package handlers

import (
	"gallery/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// HomeHandler serves the welcome pages.
type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// RegisterRoutes mounts /home behind authRequired and /admin behind
// authRequired followed by adminOnly.
func (h *HomeHandler) RegisterRoutes(router fiber.Router, authRequired, adminOnly fiber.Handler) {
	router.Get("/home/welcome", authRequired, h.HandleHomeWelcome)
	router.Get("/admin/welcome", authRequired, adminOnly, h.HandleAdminWelcome)
}

// HandleHomeWelcome greets the caller with the identity carried by their token.
func (h *HomeHandler) HandleHomeWelcome(c *fiber.Ctx) error {
	claims, ok := middleware.UserInfo(c)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Access Denied. Please login to continue", nil)
	}
	return respond(c, fiber.StatusOK, "Welcome to the home page", fiber.Map{
		"user": fiber.Map{
			"userID": claims.UserID,
			"email":  claims.Email,
			"role":   claims.Role,
		},
	})
}

func (h *HomeHandler) HandleAdminWelcome(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, "Welcome to the admin page", nil)
}
