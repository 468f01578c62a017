package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trademark-gov/order-relay/app/controllers"
	"github.com/trademark-gov/order-relay/internal/pkg/config"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the process-wide singletons the handlers are built from.
type Dependencies struct {
	Config         config.Config
	Checkout       controllers.CheckoutSessionCreator
	Events         controllers.EventVerifier
	Notifier       controllers.Notifier
	LimiterStorage fiber.Storage
	// DocsFile is the OpenAPI document; docs are skipped when empty.
	DocsFile string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))

	// Must stay last: anything not matched above is a 404.
	app.Use(controllers.HandleNotFound)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
