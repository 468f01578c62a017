package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trademark-gov/order-relay/app/controllers"
	"github.com/trademark-gov/order-relay/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	checkout := controllers.NewCheckoutController(h.deps.Checkout)
	webhooks := controllers.NewWebhookController(h.deps.Events, h.deps.Notifier, controllers.NotificationSettings{
		To:      h.deps.Config.Notify.To,
		Subject: h.deps.Config.Notify.Subject,
	})

	app.Post("/create-checkout-session",
		middleware.RateLimit(h.deps.Config.RateLimit, h.deps.LimiterStorage),
		checkout.HandleCreateCheckoutSession,
	)

	// Stripe webhooks (no rate limit, signature-verified in controller)
	app.Post("/webhook", webhooks.HandleStripeWebhook)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
