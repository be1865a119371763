package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/screenbreak/screenbreak-backend/internal/services"
)

type processScreenRequest struct {
	Data []struct {
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

// ProcessScreen ingests one OCR capture: classify, record the observation
// and report whether an intervention is required.
func ProcessScreen(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req processScreenRequest
		if err := c.BodyParser(&req); err != nil || len(req.Data) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid OCR data format: missing 'data' field",
			})
		}

		text := strings.TrimSpace(req.Data[0].Content.Text)
		if text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "no text found in OCR data",
			})
		}

		observedAt := time.Now()
		if req.Timestamp != "" {
			if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
				observedAt = ts
			}
		}

		result, err := svc.ProcessScreen(c.UserContext(), text, observedAt)
		if err != nil {
			return respondError(c, err)
		}

		resp := fiber.Map{
			"status":                "success",
			"platform_detected":     result.PlatformDetected,
			"platform":              result.Platform,
			"confidence":            result.Confidence,
			"intervention_required": result.Intervention != nil,
		}
		if result.Intervention != nil {
			resp["intervention_data"] = result.Intervention
		}
		return c.JSON(resp)
	}
}
