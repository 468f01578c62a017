package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/trademark-gov/order-relay/internal/pkg/mail"
	"github.com/trademark-gov/order-relay/internal/pkg/payment"
)

const testSigningSecret = "whsec_test_order_relay"

var testNotify = NotificationSettings{To: "info@trademark-gov.us", Subject: "New User Email Submission"}

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) messages() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mail.Message(nil), s.sent...)
}

type webhookHarness struct {
	app        *fiber.App
	sender     *recordingSender
	dispatcher *mail.Dispatcher
}

func newWebhookHarness(t *testing.T, sendErr error) *webhookHarness {
	t.Helper()
	sender := &recordingSender{err: sendErr}
	dispatcher := mail.NewDispatcher(sender, time.Second)
	verifier := payment.NewStripeClient(payment.Options{SigningSecret: testSigningSecret})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Post("/webhook", NewWebhookController(verifier, dispatcher, testNotify).HandleStripeWebhook)
	return &webhookHarness{app: app, sender: sender, dispatcher: dispatcher}
}

// post sends the webhook and waits for any dispatched mail to finish.
func (h *webhookHarness) post(t *testing.T, body []byte, signature string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.NoError(t, h.dispatcher.Close(context.Background()))
	return resp.StatusCode
}

func sign(t *testing.T, payload []byte) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSigningSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func eventJSON(t *testing.T, eventType string, metadata map[string]string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":     "evt_test_1",
		"object": "event",
		"type":   eventType,
		"data": map[string]any{
			"object": map[string]any{
				"id":       "cs_test_123",
				"object":   "checkout.session",
				"metadata": metadata,
			},
		},
	})
	require.NoError(t, err)
	return b
}

func TestWebhook_InvalidSignature(t *testing.T) {
	payload := eventJSON(t, "checkout.session.completed", map[string]string{"email": "wile@example.com"})
	body, header := sign(t, payload)

	tests := []struct {
		name      string
		body      []byte
		signature string
	}{
		{name: "missing header", body: body, signature: ""},
		{name: "garbage header", body: body, signature: "t=1234567890,v1=invalidsignaturevalue"},
		{name: "tampered body", body: bytes.Replace(body, []byte("wile@"), []byte("evil@"), 1), signature: header},
		{name: "empty body", body: []byte{}, signature: header},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWebhookHarness(t, nil)
			assert.Equal(t, fiber.StatusBadRequest, h.post(t, tt.body, tt.signature))
			assert.Empty(t, h.sender.messages())
		})
	}
}

func TestWebhook_IgnoresOtherEventTypes(t *testing.T) {
	for _, eventType := range []string{"payment_intent.succeeded", "checkout.session.expired", "customer.created"} {
		t.Run(eventType, func(t *testing.T) {
			h := newWebhookHarness(t, nil)
			body, header := sign(t, eventJSON(t, eventType, map[string]string{"email": "wile@example.com"}))

			assert.Equal(t, fiber.StatusOK, h.post(t, body, header))
			assert.Empty(t, h.sender.messages())
		})
	}
}

func TestWebhook_CompletedSendsOneEmail(t *testing.T) {
	h := newWebhookHarness(t, nil)
	metadata := map[string]string{
		"markName": "ACME ROCKETS", "ownershipType": "individual", "firstName": "Wile", "lastName": "Coyote",
		"country": "US", "address": "1 Desert Rd", "city": "Tucson", "state": "AZ", "zip": "85701",
		"phone": "+1 520 555 0100", "email": "wile@example.com", "description": "Rocket skates",
		"searchType": "comprehensive", "plan": "premium", "processingSpeed": "rush", "termsAccepted": "true",
	}
	body, header := sign(t, eventJSON(t, "checkout.session.completed", metadata))

	require.Equal(t, fiber.StatusOK, h.post(t, body, header))

	msgs := h.sender.messages()
	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Equal(t, "wile@example.com", msg.From)
	assert.Equal(t, "info@trademark-gov.us", msg.To)
	assert.Equal(t, "New User Email Submission", msg.Subject)
	assert.NotEmpty(t, msg.ID)

	want := "You received a new email from: wile@example.com\n\nData:\n" +
		"Mark Name: ACME ROCKETS\nOwnership Type: individual\nFirst Name: Wile\nLast Name: Coyote\n" +
		"Country: US\nAddress: 1 Desert Rd\nCity: Tucson\nState: AZ\nZip: 85701\n" +
		"Phone: +1 520 555 0100\nEmail: wile@example.com\nDescription: Rocket skates\n" +
		"Search Type: comprehensive\nPackage: premium\nProcessing Speed: rush\nTerms Accepted: Yes"
	assert.Equal(t, want, msg.Body)
}

func TestWebhook_MailFailureStillAcknowledges(t *testing.T) {
	h := newWebhookHarness(t, errors.New("550 sender rejected"))
	body, header := sign(t, eventJSON(t, "checkout.session.completed", map[string]string{"email": "wile@example.com"}))

	assert.Equal(t, fiber.StatusOK, h.post(t, body, header))
	assert.Len(t, h.sender.messages(), 1)
}

func TestWebhook_UndecodableSessionIsAcknowledged(t *testing.T) {
	h := newWebhookHarness(t, nil)
	payload := []byte(`{"id":"evt_bad","object":"event","type":"checkout.session.completed","data":{"object":{"metadata":"not-a-map"}}}`)
	body, header := sign(t, payload)

	assert.Equal(t, fiber.StatusOK, h.post(t, body, header))
	assert.Empty(t, h.sender.messages())
}

// Order data posted at checkout must come back verbatim in the mail once
// Stripe reports the session as completed.
func TestCheckoutToWebhookRoundTrip(t *testing.T) {
	creator := &fakeCheckout{id: "cs_test_123"}
	status, _ := postJSON(t, newCheckoutApp(creator), "/create-checkout-session", checkoutBody)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, creator.inputs, 1)
	metadata := creator.inputs[0].Metadata

	h := newWebhookHarness(t, nil)
	body, header := sign(t, eventJSON(t, "checkout.session.completed", metadata))
	require.Equal(t, fiber.StatusOK, h.post(t, body, header))

	msgs := h.sender.messages()
	require.Len(t, msgs, 1)
	for key, value := range metadata {
		if key == "termsAccepted" {
			continue
		}
		assert.True(t, strings.Contains(msgs[0].Body, ": "+value+"\n") || strings.HasSuffix(msgs[0].Body, ": "+value),
			fmt.Sprintf("field %s=%q missing from mail body", key, value))
	}
	assert.True(t, strings.HasSuffix(msgs[0].Body, "Terms Accepted: Yes"))
}
