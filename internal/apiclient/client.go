// Package apiclient is the typed client for this repository's payment API.
// It implements the wizard's Backend port over the retrying fetch client
// and caches live prices so the plan step does not hit the payment
// platform on every visit.
package apiclient

import (
	"context"
	"errors"
	"net/url"

	"github.com/clem-pxp/elevate-auth/internal/faults"
	"github.com/clem-pxp/elevate-auth/internal/fetch"
	"github.com/clem-pxp/elevate-auth/internal/models"
	"github.com/clem-pxp/elevate-auth/internal/plans"
	"github.com/clem-pxp/elevate-auth/internal/storage"
)

// Client calls the payment API rooted at BaseURL.
type Client struct {
	baseURL string
	http    *fetch.Client
	prices  *priceCache
}

// New returns a Client for the API at baseURL (no trailing slash).
func New(baseURL string, httpClient *fetch.Client) *Client {
	if httpClient == nil {
		httpClient = fetch.NewClient()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		prices:  newPriceCache(),
	}
}

// SetPriceCacheStore backs the price cache with a persistent store instead
// of process memory.
func (c *Client) SetPriceCacheStore(s storage.Store) {
	c.prices.store = s
}

// CreateCheckoutSession opens an embedded checkout session for priceID.
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID, email string) (*models.CreateCheckoutSessionResponse, error) {
	var out models.CreateCheckoutSessionResponse
	req := models.CreateCheckoutSessionRequest{PriceID: priceID, Email: email}
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/create-checkout-session", req, &out, fetch.Options{}); err != nil {
		return nil, classify(err, "Impossible de démarrer le paiement. Veuillez réessayer.")
	}
	return &out, nil
}

// CheckoutStatus fetches the reconciliation verdict for a returned session.
func (c *Client) CheckoutStatus(ctx context.Context, sessionID string) (*models.CheckoutStatusResponse, error) {
	var out models.CheckoutStatusResponse
	u := c.baseURL + "/api/checkout-status?session_id=" + url.QueryEscape(sessionID)
	if err := c.http.GetJSON(ctx, u, &out, fetch.Options{}); err != nil {
		return nil, classify(err, "Impossible de vérifier le statut du paiement. Veuillez contacter le support.")
	}
	return &out, nil
}

// FetchPrices returns live prices, served from cache while fresh.
func (c *Client) FetchPrices(ctx context.Context) ([]plans.LivePrice, error) {
	return c.prices.get(ctx, func(ctx context.Context) ([]plans.LivePrice, error) {
		var out models.PricesResponse
		if err := c.http.GetJSON(ctx, c.baseURL+"/api/stripe/prices", &out, fetch.Options{}); err != nil {
			return nil, classify(err, "Impossible de charger les tarifs. Veuillez réessayer.")
		}
		return out.Prices, nil
	})
}

// CreatePortalSession returns the billing portal URL for a customer.
func (c *Client) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	var out models.CreatePortalSessionResponse
	req := models.CreatePortalSessionRequest{CustomerID: customerID}
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/create-portal-session", req, &out, fetch.Options{}); err != nil {
		return "", classify(err, "Impossible d'ouvrir le portail de facturation. Veuillez réessayer.")
	}
	return out.URL, nil
}

// VerifyPayment checks (and if needed settles) the invoice behind a
// payment reference.
func (c *Client) VerifyPayment(ctx context.Context, paymentIntentID string) (*models.VerifyPaymentResponse, error) {
	var out models.VerifyPaymentResponse
	req := models.VerifyPaymentRequest{PaymentIntentID: paymentIntentID}
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/verify-payment", req, &out, fetch.Options{}); err != nil {
		return nil, classify(err, "Impossible de vérifier le paiement. Veuillez contacter le support.")
	}
	return &out, nil
}

// classify maps transport failures onto the faults taxonomy, keeping the
// server's own message when it sent one.
func classify(err error, fallback string) error {
	var fe *fetch.Error
	if !errors.As(err, &fe) {
		return faults.Wrap(faults.KindNetwork, fallback, err)
	}
	switch {
	case fe.Status == 0 || fetch.IsTimeout(err) || fe.Status >= 500:
		return faults.Wrap(faults.KindNetwork, fallback, err)
	default:
		msg := fe.Message
		if msg == "" {
			msg = fallback
		}
		return faults.Wrap(faults.KindExternalPlatform, msg, err)
	}
}
