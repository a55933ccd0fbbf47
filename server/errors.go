package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-imagelite/auth"
	"github.com/goliatone/go-imagelite/images"
	"github.com/goliatone/go-imagelite/middleware/jwtware"
)

// ErrorHandler maps error kinds to responses. Diagnostics behind
// credential and token failures are never written to the client.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error

		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			body := fiber.Map{"error": auth.ErrInvalidInput.Error()}
			if fields := auth.FieldsOf(err); len(fields) > 0 {
				body["fields"] = fields
			}
			return c.Status(fiber.StatusBadRequest).JSON(body)

		case errors.Is(err, auth.ErrDuplicateIdentity):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": auth.ErrDuplicateIdentity.Error(),
			})

		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": auth.ErrInvalidCredentials.Error(),
			})

		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, jwtware.ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})

		case errors.Is(err, images.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": images.ErrNotFound.Error(),
			})

		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		logger.Error("unhandled request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
