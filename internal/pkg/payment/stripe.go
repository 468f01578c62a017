package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrMissingSignature     = errors.New("missing Stripe-Signature header")
	ErrMissingSigningSecret = errors.New("webhook signing secret is not configured")
)

// EventCheckoutSessionCompleted is the only event type the relay acts on.
const EventCheckoutSessionCompleted = stripe.EventTypeCheckoutSessionCompleted

// CheckoutSettings are the fixed, configuration-driven parts of a session.
type CheckoutSettings struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// CheckoutInput is the per-request part of a session.
type CheckoutInput struct {
	ProductName        string
	ProductDescription string
	UnitAmount         int64
	Metadata           map[string]string
}

type Options struct {
	SecretKey     string
	SigningSecret string
	Checkout      CheckoutSettings

	// BaseURL overrides the Stripe API endpoint (tests, stripe-mock).
	BaseURL    string
	HTTPClient *http.Client
}

// StripeClient creates checkout sessions and verifies webhook payloads. It
// holds no per-request state and is safe for concurrent use.
type StripeClient struct {
	sessions      session.Client
	signingSecret string
	checkout      CheckoutSettings
}

func NewStripeClient(opts Options) *StripeClient {
	cfg := &stripe.BackendConfig{
		// Failed calls surface to the caller, nothing is retried.
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     leveledLogger{},
	}
	if opts.BaseURL != "" {
		cfg.URL = stripe.String(opts.BaseURL)
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &StripeClient{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Key: opts.SecretKey,
		},
		signingSecret: strings.TrimSpace(opts.SigningSecret),
		checkout:      opts.Checkout,
	}
}

// NewCheckoutSessionParams builds a one-shot card payment for a single line
// item carrying the order in metadata.
func NewCheckoutSessionParams(settings CheckoutSettings, in CheckoutInput) *stripe.CheckoutSessionParams {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(in.ProductName),
	}
	if in.ProductDescription != "" {
		product.Description = stripe.String(in.ProductDescription)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(settings.Currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(in.UnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(settings.SuccessURL),
		CancelURL:  stripe.String(settings.CancelURL),
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}

// CreateCheckoutSession returns the id of the created session.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, error) {
	params := NewCheckoutSessionParams(c.checkout, in)
	params.Context = ctx

	s, err := c.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.ID, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw payload
// and only then decodes the event.
func (c *StripeClient) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if c.signingSecret == "" {
		return stripe.Event{}, ErrMissingSigningSecret
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	return webhook.ConstructEventWithOptions(payload, signatureHeader, c.signingSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

// CheckoutSessionFromEvent decodes the session object of a checkout event.
func CheckoutSessionFromEvent(event stripe.Event) (*stripe.CheckoutSession, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, errors.New("event has no data object")
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &s, nil
}

// leveledLogger routes stripe-go's logging through fiber's logger.
type leveledLogger struct{}

func (leveledLogger) Debugf(format string, v ...interface{}) {
	fiberlog.Debugf("[Stripe] "+format, v...)
}

func (leveledLogger) Infof(format string, v ...interface{}) {
	fiberlog.Infof("[Stripe] "+format, v...)
}

func (leveledLogger) Warnf(format string, v ...interface{}) {
	fiberlog.Warnf("[Stripe] "+format, v...)
}

func (leveledLogger) Errorf(format string, v ...interface{}) {
	fiberlog.Errorf("[Stripe] "+format, v...)
}

