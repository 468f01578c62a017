package controllers

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"

	"github.com/trademark-gov/order-relay/internal/pkg/mail"
	"github.com/trademark-gov/order-relay/internal/pkg/order"
	"github.com/trademark-gov/order-relay/internal/pkg/payment"
)

type EventVerifier interface {
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

// Notifier hands a message off for background delivery.
type Notifier interface {
	Dispatch(msg mail.Message) <-chan mail.Result
}

// NotificationSettings are the fixed parts of the order mail.
type NotificationSettings struct {
	To      string
	Subject string
}

type WebhookController struct {
	verifier EventVerifier
	notifier Notifier
	notify   NotificationSettings
}

func NewWebhookController(verifier EventVerifier, notifier Notifier, notify NotificationSettings) *WebhookController {
	return &WebhookController{
		verifier: verifier,
		notifier: notifier,
		notify:   notify,
	}
}

// HandleStripeWebhook verifies the signature before the body is looked at,
// mails completed checkouts and acknowledges everything that verified. Mail
// delivery is not awaited; a failed send is only logged.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	event, err := wc.verifier.ConstructEvent(rawBody, signature)
	if err != nil {
		fiberlog.Warnf("[Webhook] signature verification failed: %v", err)
		return c.SendStatus(fiber.StatusBadRequest)
	}

	if event.Type != payment.EventCheckoutSessionCompleted {
		fiberlog.Debugf("[Webhook] ignoring event %s of type %s", event.ID, event.Type)
		return c.SendStatus(fiber.StatusOK)
	}

	session, err := payment.CheckoutSessionFromEvent(event)
	if err != nil {
		// Redelivery would carry the same payload.
		fiberlog.Errorf("[Webhook] event %s: %v", event.ID, err)
		return c.SendStatus(fiber.StatusOK)
	}

	o := order.FromMetadata(session.Metadata)
	// The customer address is used as sender; relays enforcing SPF/DMARC
	// may reject these mails.
	msg := mail.NewMessage(o.Email, wc.notify.To, wc.notify.Subject, o.NotificationBody())
	fiberlog.Infof("[Webhook] checkout session %s completed, dispatching email %s", session.ID, msg.ID)
	wc.notifier.Dispatch(msg)

	return c.SendStatus(fiber.StatusOK)
}
