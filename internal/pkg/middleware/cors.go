package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS lets the storefront call the API from any origin. Preflight requests
// are answered with 204 and never reach the handlers.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodPatch,
			fiber.MethodOptions,
			fiber.MethodHead,
		}, ","),
		AllowHeaders: strings.Join([]string{
			fiber.HeaderContentType,
			fiber.HeaderAuthorization,
			fiber.HeaderXRequestedWith,
			fiber.HeaderAccept,
			fiber.HeaderOrigin,
		}, ","),
		AllowCredentials: false,
	})
}
