package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/screenbreak/screenbreak-backend/internal/services"
	"github.com/screenbreak/screenbreak-backend/internal/tracker"
)

// respondError maps core errors onto HTTP statuses: validation problems are
// the caller's fault, everything else (storage included) is a server error.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, services.ErrValidation) ||
		errors.Is(err, tracker.ErrMissingPlatform) ||
		errors.Is(err, tracker.ErrMissingTimestamp) {
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
