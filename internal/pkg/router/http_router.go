package router

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/trademark-gov/order-relay/app/controllers"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// browsers ask for it on every storefront visit
	app.Use(favicon.New())

	app.Get("/", controllers.NewMainController(h.deps.Config.Port).HandleIndex)

	// fiber metrics
	if h.deps.Config.MetricsEnabled() {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.deps.Config.MetricsUser: h.deps.Config.MetricsPassword,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	if h.deps.DocsFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: h.deps.DocsFile,
			Path:     "v1",
			Title:    "Order Relay API",
		}))
	}
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
