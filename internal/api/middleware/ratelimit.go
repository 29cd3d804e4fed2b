package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// GlobalRateLimit is the coarse per-IP budget over the whole API: 100
// requests per day. The per-endpoint hourly and daily quotas are enforced
// separately by the quota guard inside the handlers.
func GlobalRateLimit() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 24 * time.Hour,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Limite quotidienne de requêtes atteinte. Réessayez demain.",
			})
		},
	})
}
