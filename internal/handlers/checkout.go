package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/clem-pxp/elevate-auth/internal/models"
	"github.com/clem-pxp/elevate-auth/internal/plans"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
	"github.com/go-chi/chi/v5"
)

// CheckoutHandler holds dependencies for the checkout and subscription endpoints.
type CheckoutHandler struct {
	Stripe     *stripeClient.Client
	AppBaseURL string
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(stripe *stripeClient.Client, appBaseURL string) *CheckoutHandler {
	return &CheckoutHandler{
		Stripe:     stripe,
		AppBaseURL: strings.TrimSuffix(appBaseURL, "/"),
	}
}

// RegisterRoutes registers the checkout routes.
func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/create-checkout-session", h.CreateCheckoutSession())
	router.Get("/api/checkout-status", h.CheckoutStatus())
	router.Post("/api/create-subscription", h.CreateSubscription())
	router.Post("/api/create-payment-intent", h.CreatePaymentIntent())
}

// CreateCheckoutSession opens an embedded checkout session for a catalog
// price, reusing the customer registered with the email when one exists.
func (h *CheckoutHandler) CreateCheckoutSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateCheckoutSessionRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if !plans.IsValidPriceID(req.PriceID) {
			writeError(w, http.StatusBadRequest, "Invalid price ID")
			return
		}

		customer, err := h.findOrCreateCustomer(r, req.Email)
		if err != nil {
			log.Printf("CreateCheckoutSession: customer lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve customer")
			return
		}

		returnURL := h.AppBaseURL + "/inscription?session_id={CHECKOUT_SESSION_ID}"
		session, err := h.Stripe.CreateEmbeddedCheckoutSession(r.Context(), customer.ID, req.PriceID, returnURL)
		if err != nil {
			log.Printf("CreateCheckoutSession: Stripe error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create checkout session")
			return
		}

		writeJSON(w, http.StatusOK, models.CreateCheckoutSessionResponse{
			ClientSecret: session.ClientSecret,
			SessionID:    session.ID,
			CustomerID:   customer.ID,
		})
	}
}

// CheckoutStatus reports the reconciliation verdict for a returned session.
func (h *CheckoutHandler) CheckoutStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, "session_id query parameter is required")
			return
		}

		session, err := h.Stripe.RetrieveCheckoutSession(r.Context(), sessionID)
		if err != nil {
			log.Printf("CheckoutStatus: Stripe error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to retrieve checkout session")
			return
		}

		writeJSON(w, http.StatusOK, models.CheckoutStatusResponse{
			Status:         session.Status,
			CustomerEmail:  session.CustomerEmail,
			CustomerID:     session.CustomerID,
			SubscriptionID: session.SubscriptionID,
		})
	}
}

// CreateSubscription starts an incomplete subscription for the
// payment-element integration style and returns its first payment's
// client secret.
func (h *CheckoutHandler) CreateSubscription() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateSubscriptionRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if !plans.IsValidPriceID(req.PriceID) {
			writeError(w, http.StatusBadRequest, "Invalid price ID")
			return
		}

		customer, err := h.findOrCreateCustomer(r, req.Email)
		if err != nil {
			log.Printf("CreateSubscription: customer lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve customer")
			return
		}

		sub, err := h.Stripe.CreateSubscription(r.Context(), customer.ID, req.PriceID)
		if err != nil {
			log.Printf("CreateSubscription: Stripe error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create subscription")
			return
		}

		writeJSON(w, http.StatusOK, models.CreateSubscriptionResponse{
			SubscriptionID: sub.ID,
			ClientSecret:   sub.ClientSecret,
			CustomerID:     customer.ID,
		})
	}
}

// CreatePaymentIntent creates a one-off payment intent priced from a
// catalog price.
func (h *CheckoutHandler) CreatePaymentIntent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreatePaymentIntentRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if !plans.IsValidPriceID(req.PriceID) {
			writeError(w, http.StatusBadRequest, "Invalid price ID")
			return
		}

		price, err := h.Stripe.RetrievePrice(r.Context(), req.PriceID)
		if err != nil {
			log.Printf("CreatePaymentIntent: price lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to retrieve price")
			return
		}

		pi, err := h.Stripe.CreatePaymentIntent(r.Context(), price.UnitAmount, price.Currency, map[string]string{
			"price_id": req.PriceID,
		})
		if err != nil {
			log.Printf("CreatePaymentIntent: Stripe error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create payment intent")
			return
		}

		writeJSON(w, http.StatusOK, models.CreatePaymentIntentResponse{
			ClientSecret: pi.ClientSecret,
		})
	}
}

// findOrCreateCustomer reuses the customer already registered with email
// so retried checkouts do not pile up duplicate customers.
func (h *CheckoutHandler) findOrCreateCustomer(r *http.Request, email string) (*stripeClient.Customer, error) {
	customer, err := h.Stripe.FindCustomerByEmail(r.Context(), email)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}
	return h.Stripe.CreateCustomer(r.Context(), email)
}
