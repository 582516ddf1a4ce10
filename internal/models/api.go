// Package models holds the wire types of the HTTP API: request payloads
// (with their validation schemas) and normalized success responses.
package models

import "github.com/clem-pxp/elevate-auth/internal/plans"

// CreateCheckoutSessionRequest starts an embedded checkout for a plan.
type CreateCheckoutSessionRequest struct {
	PriceID string `json:"priceId" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// CreateCheckoutSessionResponse returns what the embedded checkout needs.
type CreateCheckoutSessionResponse struct {
	ClientSecret string `json:"clientSecret"`
	SessionID    string `json:"sessionId"`
	CustomerID   string `json:"customerId"`
}

// CheckoutStatusResponse reports the reconciliation verdict for a session.
type CheckoutStatusResponse struct {
	Status         string `json:"status"`
	CustomerEmail  string `json:"customer_email"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
}

// CreateSubscriptionRequest starts a subscription for the payment-element
// integration style.
type CreateSubscriptionRequest struct {
	PriceID string `json:"priceId" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// CreateSubscriptionResponse carries the first invoice's payment secret.
type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
	CustomerID     string `json:"customerId"`
}

// CreatePaymentIntentRequest creates a one-off payment intent for a plan.
type CreatePaymentIntentRequest struct {
	PriceID string `json:"priceId" validate:"required"`
}

// CreatePaymentIntentResponse carries the payment secret.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePortalSessionRequest opens the billing self-service portal.
type CreatePortalSessionRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
}

// CreatePortalSessionResponse returns the portal URL to navigate to.
type CreatePortalSessionResponse struct {
	URL string `json:"url"`
}

// VerifyPaymentRequest asks the server to confirm a payment intent and
// settle its invoice.
type VerifyPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

// VerifyPaymentInvoice summarizes the settled invoice.
type VerifyPaymentInvoice struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VerifyPaymentSubscription summarizes the linked subscription.
type VerifyPaymentSubscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VerifyPaymentResponse reports the verification outcome. Invoice and
// Subscription are only present on success with a linked invoice.
type VerifyPaymentResponse struct {
	Success      bool                       `json:"success"`
	Status       string                     `json:"status"`
	Message      string                     `json:"message,omitempty"`
	Invoice      *VerifyPaymentInvoice      `json:"invoice,omitempty"`
	Subscription *VerifyPaymentSubscription `json:"subscription,omitempty"`
}

// PricesResponse lists the live catalog prices.
type PricesResponse struct {
	Prices []plans.LivePrice `json:"prices"`
}

// ErrorResponse is the shared failure envelope: a message plus optional
// field-level validation details.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}
