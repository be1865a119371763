package main

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/screenbreak/screenbreak-backend/internal/api"
	"github.com/screenbreak/screenbreak-backend/internal/config"
	"github.com/screenbreak/screenbreak-backend/internal/database"
	"github.com/screenbreak/screenbreak-backend/internal/llm"
	"github.com/screenbreak/screenbreak-backend/internal/repository/sqlite"
	"github.com/screenbreak/screenbreak-backend/internal/services"
	"github.com/screenbreak/screenbreak-backend/internal/tracker"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// Connect to database and run migrations
	db, err := database.NewConnection(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	// Initialize the LLM collaborators
	llmClient, err := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize LLM client (is GROQ_API_KEY set?)")
	}

	// Initialize repositories and services
	usageRepo := sqlite.NewUsageRepository(db.DB)
	settingsRepo := sqlite.NewSettingsRepository(db.DB)
	trk := tracker.New(usageRepo, log)
	svc := services.NewServices(trk, settingsRepo, llmClient, llmClient, log)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "ScreenBreak Backend",
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	api.SetupRoutes(app, svc)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("ScreenBreak backend starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
