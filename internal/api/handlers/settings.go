package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/screenbreak/screenbreak-backend/internal/services"
)

// UpdateSettings merges a partial settings payload into the stored settings.
func UpdateSettings(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch map[string]interface{}
		if err := c.BodyParser(&patch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}

		if err := svc.UpdateSettings(c.UserContext(), patch); err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Settings updated successfully",
		})
	}
}

// Reset destroys all usage data and restores default settings.
func Reset(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.ResetAll(c.UserContext()); err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "All usage data has been reset",
		})
	}
}
