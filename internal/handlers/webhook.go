package handlers

import (
	"io"
	"log"
	"net/http"
	"time"

	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler processes payment-platform webhook events.
type WebhookHandler struct {
	Stripe        *stripeClient.Client
	WebhookSecret string
	Now           func() time.Time
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(stripe *stripeClient.Client, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		Stripe:        stripe,
		WebhookSecret: webhookSecret,
		Now:           time.Now,
	}
}

// RegisterRoutes registers the webhook routes.
func (h *WebhookHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/webhooks/stripe", h.HandleWebhook())
}

// HandleWebhook verifies the event signature and dispatches by type.
// Signature verification happens before any processing; an invalid or
// missing signature is rejected outright. Unknown event types are
// acknowledged so the platform does not retry them.
func (h *WebhookHandler) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.WebhookSecret == "" {
			log.Printf("Webhook: rejected, no webhook secret configured")
			writeError(w, http.StatusServiceUnavailable, "webhook delivery not configured")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		event, err := stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"), h.WebhookSecret, h.Now())
		if err != nil {
			log.Printf("Webhook: signature verification failed: %v", err)
			writeError(w, http.StatusBadRequest, "invalid webhook signature")
			return
		}

		log.Printf("[webhook] Received event %s (type: %s)", event.ID, event.Type)

		switch event.Type {
		case "payment_intent.succeeded":
			h.handlePaymentIntentSucceeded(r, event)
		default:
			log.Printf("[webhook] Unhandled event type: %s", event.Type)
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

// handlePaymentIntentSucceeded settles the invoice behind a succeeded
// payment intent. Failures are logged, not returned: the payment already
// happened and verify-payment can finish the reconciliation later.
func (h *WebhookHandler) handlePaymentIntentSucceeded(r *http.Request, event *stripeClient.WebhookEvent) {
	obj := event.Data.Object

	intentID, _ := obj["id"].(string)
	invoiceID, _ := obj["invoice"].(string)
	if invoiceID == "" {
		if meta, ok := obj["metadata"].(map[string]interface{}); ok {
			invoiceID, _ = meta["invoice_id"].(string)
		}
	}
	if invoiceID == "" {
		log.Printf("[webhook] payment_intent.succeeded: %s carries no invoice", intentID)
		return
	}

	invoice, err := h.Stripe.RetrieveInvoice(r.Context(), invoiceID)
	if err != nil {
		log.Printf("[webhook] payment_intent.succeeded: invoice lookup failed: %v", err)
		return
	}
	if invoice.Status == "paid" {
		return
	}

	if _, err := h.Stripe.PayInvoiceOutOfBand(r.Context(), invoice.ID); err != nil {
		log.Printf("[webhook] payment_intent.succeeded: settling invoice %s failed: %v", invoice.ID, err)
		return
	}
	log.Printf("[webhook] Invoice %s settled after payment intent %s", invoice.ID, intentID)
}
