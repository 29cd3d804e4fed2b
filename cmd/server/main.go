package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pianotechmtl/ptm-chat-backend/internal/api"
	"github.com/pianotechmtl/ptm-chat-backend/internal/api/middleware"
	"github.com/pianotechmtl/ptm-chat-backend/internal/config"
	"github.com/pianotechmtl/ptm-chat-backend/internal/history"
	openaiprovider "github.com/pianotechmtl/ptm-chat-backend/internal/providers/openai"
	"github.com/pianotechmtl/ptm-chat-backend/internal/quota"
	"github.com/pianotechmtl/ptm-chat-backend/internal/scraper"
	"github.com/pianotechmtl/ptm-chat-backend/internal/services"
)

// bodyLimit leaves room for three photos plus the multipart overhead.
const bodyLimit = 25 * 1024 * 1024

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Persona prompt, loaded once, immutable for the process lifetime
	systemPrompt := services.LoadSystemPrompt(cfg.PromptPath)

	// External providers
	chatProvider, err := openaiprovider.NewChatProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		log.Fatal("Failed to initialize chat provider:", err)
	}
	visionProvider, err := openaiprovider.NewVisionProvider(cfg.Vision.APIKey, cfg.Vision.Model, cfg.Vision.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize vision provider:", err)
	}

	// In-memory state and the composer
	store := history.NewMemoryStore(0)
	guard := quota.NewGuard()
	extractor := scraper.NewExtractor(nil)
	composer := services.NewComposer(store, chatProvider, visionProvider, extractor, systemPrompt, nil)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "PTM Chat API",
		BodyLimit:    bodyLimit,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(middleware.GlobalRateLimit())

	// Setup routes
	api.SetupRoutes(app, composer, guard)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("PTM Chat API starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
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
