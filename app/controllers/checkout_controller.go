package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/trademark-gov/order-relay/internal/pkg/order"
	"github.com/trademark-gov/order-relay/internal/pkg/payment"
)

// CheckoutSessionCreator is the part of the payment client the checkout
// handler needs.
type CheckoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, in payment.CheckoutInput) (string, error)
}

type CheckoutController struct {
	payments CheckoutSessionCreator
	timeout  time.Duration
}

func NewCheckoutController(payments CheckoutSessionCreator) *CheckoutController {
	return &CheckoutController{
		payments: payments,
		timeout:  20 * time.Second,
	}
}

// HandleCreateCheckoutSession creates a Stripe checkout session for the
// submitted package and returns its id.
func (cc *CheckoutController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req order.CheckoutRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": err.Error()})
	}

	submission, err := req.Submission()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_package", "message": err.Error()})
	}
	if err := submission.Validate(); err != nil {
		msg := "Invalid package"
		if errors.Is(err, order.ErrNegativePrice) || errors.Is(err, order.ErrPriceTooLarge) {
			msg = err.Error()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_package", "message": msg})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), cc.timeout)
	defer cancel()

	sessionID, err := cc.payments.CreateCheckoutSession(ctx, payment.CheckoutInput{
		ProductName:        submission.Name,
		ProductDescription: submission.Description,
		UnitAmount:         submission.UnitAmount(),
		Metadata:           submission.Order().Metadata(),
	})
	if err != nil {
		fiberlog.Errorf("Error creating checkout session: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString(utils.StatusMessage(fiber.StatusInternalServerError))
	}

	fiberlog.Infof("[Checkout] Created session %s for %q", sessionID, submission.Name)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": sessionID})
}
