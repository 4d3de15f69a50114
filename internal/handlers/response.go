package handlers

import (
	"errors"
	"fmt"

	"gallery/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respond writes the {success, message, ...} envelope shared by every
// endpoint. extra adds endpoint specific top-level fields.
func respond(c *fiber.Ctx, status int, message string, extra fiber.Map) error {
	body := fiber.Map{
		"success": status < fiber.StatusBadRequest,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// respondError renders err for the client. Only the AppError message is
// exposed; the full error is logged.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.NewInternalError("Something went wrong! Please try again", err)
	}

	status := appErr.StatusCode()
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		return respond(c, status, "Something went wrong! Please try again", nil)
	}

	logger.Debug("request rejected",
		zap.String("path", c.Path()),
		zap.String("kind", appErr.Type.String()),
		zap.Error(err))
	return respond(c, status, appErr.Message, nil)
}

// parseBody decodes the request body into out and validates it. On failure
// the 400 response has already been written and handled is true.
func parseBody(c *fiber.Ctx, validate *validator.Validate, out interface{}) (handled bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return true, respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}

	if err := validate.Struct(out); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return true, respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return true, respond(c, fiber.StatusBadRequest, "Validation failed", fiber.Map{
			"errors": errorMessages,
		})
	}
	return false, nil
}
