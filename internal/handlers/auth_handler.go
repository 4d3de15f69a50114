package handlers

import (
	"gallery/internal/middleware"
	"gallery/internal/models"
	"gallery/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes. authRequired guards
// the routes that act on the caller's own account.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/change-password", authRequired, h.HandleChangePassword)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string      `json:"userName" validate:"required,min=3,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if handled, err := parseBody(c, h.validate, &req); handled {
		return err
	}

	if _, err := h.authService.RegisterUser(c.UserContext(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}); err != nil {
		return respondError(c, h.logger, err)
	}

	return respond(c, fiber.StatusCreated, "User created successfully", nil)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if handled, err := parseBody(c, h.validate, &req); handled {
		return err
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{
		"accessToken": token,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// HandleChangePassword replaces the authenticated caller's password.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	claims, ok := middleware.UserInfo(c)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Access Denied. Please login to continue", nil)
	}

	var req ChangePasswordRequest
	if handled, err := parseBody(c, h.validate, &req); handled {
		return err
	}

	if err := h.authService.ChangePassword(c.UserContext(), claims.UserID, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, h.logger, err)
	}

	return respond(c, fiber.StatusOK, "Password changed successfully", nil)
}
