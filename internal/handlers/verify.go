package handlers

import (
	"log"
	"net/http"

	"github.com/clem-pxp/elevate-auth/internal/models"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
	"github.com/go-chi/chi/v5"
)

// VerifyHandler reconciles a payment intent with its invoice.
type VerifyHandler struct {
	Stripe *stripeClient.Client
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(stripe *stripeClient.Client) *VerifyHandler {
	return &VerifyHandler{Stripe: stripe}
}

// RegisterRoutes registers the verification routes.
func (h *VerifyHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/verify-payment", h.VerifyPayment())
}

// VerifyPayment checks that a payment intent succeeded and settles its
// invoice when the platform has not marked it paid yet. The settlement is
// out-of-band: the money already moved through the payment intent.
func (h *VerifyHandler) VerifyPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.VerifyPaymentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		pi, err := h.Stripe.RetrievePaymentIntent(r.Context(), req.PaymentIntentID)
		if err != nil {
			log.Printf("VerifyPayment: payment intent lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to retrieve payment intent")
			return
		}

		if pi.Status != "succeeded" {
			writeJSON(w, http.StatusOK, models.VerifyPaymentResponse{
				Success: false,
				Status:  pi.Status,
				Message: "payment has not succeeded",
			})
			return
		}

		invoiceID := pi.InvoiceID
		if invoiceID == "" {
			invoiceID = pi.Metadata["invoice_id"]
		}
		if invoiceID == "" {
			// A succeeded intent with no invoice is a one-off payment.
			writeJSON(w, http.StatusOK, models.VerifyPaymentResponse{Success: true, Status: pi.Status})
			return
		}

		invoice, err := h.Stripe.RetrieveInvoice(r.Context(), invoiceID)
		if err != nil {
			log.Printf("VerifyPayment: invoice lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to retrieve invoice")
			return
		}

		if invoice.Status != "paid" {
			invoice, err = h.Stripe.PayInvoiceOutOfBand(r.Context(), invoice.ID)
			if err != nil {
				log.Printf("VerifyPayment: settling invoice %s failed: %v", invoiceID, err)
				writeError(w, http.StatusInternalServerError, "failed to settle invoice")
				return
			}
			log.Printf("VerifyPayment: invoice %s settled out of band", invoice.ID)
		}

		resp := models.VerifyPaymentResponse{
			Success: true,
			Status:  pi.Status,
			Invoice: &models.VerifyPaymentInvoice{ID: invoice.ID, Status: invoice.Status},
		}
		if invoice.SubscriptionID != "" {
			sub, err := h.Stripe.RetrieveSubscription(r.Context(), invoice.SubscriptionID)
			if err != nil {
				log.Printf("VerifyPayment: subscription lookup failed: %v", err)
			} else {
				resp.Subscription = &models.VerifyPaymentSubscription{ID: sub.ID, Status: sub.Status}
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
