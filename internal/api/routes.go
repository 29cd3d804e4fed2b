package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pianotechmtl/ptm-chat-backend/internal/api/handlers"
	"github.com/pianotechmtl/ptm-chat-backend/internal/quota"
	"github.com/pianotechmtl/ptm-chat-backend/internal/services"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, composer *services.Composer, guard *quota.Guard) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "PTM Chat API"})
	})
	app.Get("/health", healthCheck)

	api := app.Group("/api")
	api.Post("/chat", handlers.Chat(composer, guard))
	api.Post("/chat-upload", handlers.ChatUpload(composer, guard))
	api.Get("/health", healthCheck)
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
