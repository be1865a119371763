package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/screenbreak/screenbreak-backend/internal/api/handlers"
	"github.com/screenbreak/screenbreak-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Screen capture processing
	api.Post("/screen/process", handlers.ProcessScreen(svc))

	// Usage statistics and intervention polling
	api.Get("/stats", handlers.GetStats(svc))
	api.Get("/intervention", handlers.CheckIntervention(svc))

	// Settings
	api.Put("/settings", handlers.UpdateSettings(svc))

	// Administrative full reset
	api.Post("/reset", handlers.Reset(svc))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "screenbreak-backend",
		})
	})
}
