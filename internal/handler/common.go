package handler

import (
	"errors"

	"go-lending-ws/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helper to take the acting username from JWT context (set by auth middleware)
func getActor(c *fiber.Ctx) string {
	username := c.Locals("username")
	if username == nil {
		return "system"
	}
	return username.(string)
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr *apperr.ValidationError
		notFoundErr   *apperr.NotFoundError
		stockErr      *apperr.InsufficientStockError
		returnedErr   *apperr.AlreadyReturnedError
		contentionErr *apperr.ContentionError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     err.Error(),
			"item":      stockErr.ItemName,
			"available": stockErr.Available,
		})
	case errors.As(err, &returnedErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &contentionErr):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": err.Error(), "retryable": true})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}
