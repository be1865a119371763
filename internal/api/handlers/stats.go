package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/screenbreak/screenbreak-backend/internal/services"
)

// GetStats returns today's usage statistics, optionally restricted to a
// single platform via the "platform" query parameter.
func GetStats(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.GetStats(c.UserContext(), c.Query("platform"))
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"status": "success",
			"data":   stats,
		})
	}
}

// CheckIntervention lets clients poll for a pending intervention without
// submitting OCR data. Without a platform parameter it evaluates the most
// recently opened session still open.
func CheckIntervention(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := svc.DecideIntervention(c.UserContext(), c.Query("platform"))
		if err != nil {
			return respondError(c, err)
		}

		resp := fiber.Map{
			"intervention_required": data != nil,
		}
		if data != nil {
			resp["intervention_data"] = data
		}
		return c.JSON(resp)
	}
}
