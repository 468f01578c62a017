package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/trademark-gov/order-relay/internal/pkg/config"
)

// NewLimiterStorage returns a Redis storage for the rate limiter, or nil
// (fiber's in-memory storage) when no Redis host is configured.
func NewLimiterStorage(cfg config.Redis) fiber.Storage {
	if cfg.Host == "" {
		return nil
	}
	log.Printf("Rate limiter uses redis at %s:%d db %d", cfg.Host, cfg.Port, cfg.Database)
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cfg.Database,
		Reset:    false,
	})
}

// RateLimit limits requests per client IP. A non-positive Max disables it.
func RateLimit(cfg config.RateLimit, storage fiber.Storage) fiber.Handler {
	if cfg.Max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		Storage:    storage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too_many_requests"})
		},
	})
}
