package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/trademark-gov/order-relay/app/controllers"
	"github.com/trademark-gov/order-relay/internal/pkg/config"
	"github.com/trademark-gov/order-relay/internal/pkg/env"
	"github.com/trademark-gov/order-relay/internal/pkg/mail"
	"github.com/trademark-gov/order-relay/internal/pkg/middleware"
	"github.com/trademark-gov/order-relay/internal/pkg/payment"
	"github.com/trademark-gov/order-relay/internal/pkg/router"
	"github.com/trademark-gov/order-relay/internal/pkg/shutdown"
)

func main() {
	env.SetupEnvFile()
	if env.IsDev() {
		fiberlog.SetLevel(fiberlog.LevelDebug)
	}
	cfg := config.Load()
	for _, w := range cfg.Warnings() {
		log.Printf("Warning: %s", w)
	}

	dispatcher := mail.NewDispatcher(mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Timeout:  cfg.SMTP.Timeout,
	}), cfg.SMTP.Timeout)

	app := NewApplication(cfg, dispatcher)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	go func() {
		<-ctx.Done()
		log.Print("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Port)
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Fatal(err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := dispatcher.Close(closeCtx); err != nil {
		log.Printf("Pending emails dropped: %v", err)
	}
}

// NewApplication wires the fiber app around process-wide singletons.
func NewApplication(cfg config.Config, notifier controllers.Notifier) *fiber.App {
	stripeClient := payment.NewStripeClient(payment.Options{
		SecretKey:     cfg.StripeSecretKey,
		SigningSecret: cfg.StripeSigningKey,
		Checkout: payment.CheckoutSettings{
			Currency:   cfg.Checkout.Currency,
			SuccessURL: cfg.Checkout.SuccessURL,
			CancelURL:  cfg.Checkout.CancelURL,
		},
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: controllers.ErrorHandler,
	})

	// recovery, logging and CORS for the storefront
	app.Use(recover.New(), logger.New(), middleware.CORS())

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Config:         cfg,
		Checkout:       stripeClient,
		Events:         stripeClient,
		Notifier:       notifier,
		LimiterStorage: middleware.NewLimiterStorage(cfg.Redis),
		DocsFile:       findDocsFile(),
	})

	return app
}

// findDocsFile looks for the OpenAPI document relative to the usual working
// directories.
func findDocsFile() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/orderrelay to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		file := path + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(file); err == nil {
			return file
		}
	}
	log.Print("OpenAPI document not found, /docs/api/v1 disabled")
	return ""
}
