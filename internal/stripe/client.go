// Package stripe wraps the payment-platform REST API directly (no SDK
// dependency). Every call is form-encoded against api.stripe.com/v1 and
// authenticated with the secret key.
package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Client wraps Stripe API calls.
type Client struct {
	secretKey  string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Stripe API client.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		httpClient: &http.Client{},
		baseURL:    "https://api.stripe.com/v1",
	}
}

// NewClientWithBaseURL is NewClient pointed at a test server.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	c := NewClient(secretKey)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// Customer is the subset of the Stripe customer object this service reads.
type Customer struct {
	ID    string
	Email string
}

// FindCustomerByEmail returns the first customer registered with email,
// or nil when none exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("limit", "1")

	resp, err := c.get(ctx, "/customers?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	data, _ := resp["data"].([]interface{})
	if len(data) == 0 {
		return nil, nil
	}
	first, _ := data[0].(map[string]interface{})
	id, _ := first["id"].(string)
	foundEmail, _ := first["email"].(string)
	return &Customer{ID: id, Email: foundEmail}, nil
}

// CreateCustomer registers a new customer for email.
func (c *Client) CreateCustomer(ctx context.Context, email string) (*Customer, error) {
	data := url.Values{}
	data.Set("email", email)

	resp, err := c.post(ctx, "/customers", data)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	id, _ := resp["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("create customer: missing customer ID in response")
	}
	return &Customer{ID: id, Email: email}, nil
}

// CheckoutSession is the result of creating or retrieving a checkout session.
type CheckoutSession struct {
	ID             string
	ClientSecret   string
	Status         string
	CustomerEmail  string
	CustomerID     string
	SubscriptionID string
}

// CreateEmbeddedCheckoutSession creates a subscription checkout session in
// embedded mode. returnURL must carry the {CHECKOUT_SESSION_ID} template so
// the browser comes back with the session identifier.
func (c *Client) CreateEmbeddedCheckoutSession(ctx context.Context, customerID, priceID, returnURL string) (*CheckoutSession, error) {
	data := url.Values{}
	data.Set("ui_mode", "embedded")
	data.Set("mode", "subscription")
	data.Set("customer", customerID)
	data.Set("line_items[0][price]", priceID)
	data.Set("line_items[0][quantity]", "1")
	data.Set("return_url", returnURL)
	data.Set("client_reference_id", uuid.NewString())

	resp, err := c.post(ctx, "/checkout/sessions", data)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	session := &CheckoutSession{CustomerID: customerID}
	session.ID, _ = resp["id"].(string)
	session.ClientSecret, _ = resp["client_secret"].(string)
	if session.ID == "" {
		return nil, fmt.Errorf("create checkout session: missing session ID in response")
	}
	return session, nil
}

// RetrieveCheckoutSession fetches the current status of a checkout session.
func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	resp, err := c.get(ctx, "/checkout/sessions/"+url.PathEscape(sessionID))
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	session := &CheckoutSession{}
	session.ID, _ = resp["id"].(string)
	session.Status, _ = resp["status"].(string)
	session.CustomerID, _ = resp["customer"].(string)
	session.SubscriptionID, _ = resp["subscription"].(string)
	if details, ok := resp["customer_details"].(map[string]interface{}); ok {
		session.CustomerEmail, _ = details["email"].(string)
	}
	return session, nil
}

// Subscription is the subset of the subscription object this service reads.
type Subscription struct {
	ID           string
	Status       string
	ClientSecret string
	CustomerID   string
}

// CreateSubscription creates an incomplete subscription and returns the
// client secret of its first payment intent. When the platform does not
// attach one to the latest invoice, a payment intent is created manually
// with the invoice linked through metadata.
func (c *Client) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	data := url.Values{}
	data.Set("customer", customerID)
	data.Set("items[0][price]", priceID)
	data.Set("payment_behavior", "default_incomplete")
	data.Set("payment_settings[save_default_payment_method]", "on_subscription")
	data.Set("expand[]", "latest_invoice.payment_intent")

	resp, err := c.post(ctx, "/subscriptions", data)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	sub := &Subscription{CustomerID: customerID}
	sub.ID, _ = resp["id"].(string)
	sub.Status, _ = resp["status"].(string)
	if sub.ID == "" {
		return nil, fmt.Errorf("create subscription: missing subscription ID in response")
	}

	invoice, _ := resp["latest_invoice"].(map[string]interface{})
	if invoice == nil {
		return nil, fmt.Errorf("create subscription: latest invoice not found")
	}

	if pi, ok := invoice["payment_intent"].(map[string]interface{}); ok {
		sub.ClientSecret, _ = pi["client_secret"].(string)
	}
	if sub.ClientSecret == "" {
		invoiceID, _ := invoice["id"].(string)
		amountDue, _ := invoice["amount_due"].(float64)
		currency, _ := invoice["currency"].(string)

		pi, err := c.createPaymentIntent(ctx, int64(amountDue), currency, customerID, map[string]string{
			"subscription_id": sub.ID,
			"invoice_id":      invoiceID,
		})
		if err != nil {
			return nil, err
		}
		sub.ClientSecret = pi.ClientSecret
	}
	return sub, nil
}

// RetrieveSubscription fetches a subscription's current status.
func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	resp, err := c.get(ctx, "/subscriptions/"+url.PathEscape(subscriptionID))
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription: %w", err)
	}

	sub := &Subscription{}
	sub.ID, _ = resp["id"].(string)
	sub.Status, _ = resp["status"].(string)
	sub.CustomerID, _ = resp["customer"].(string)
	return sub, nil
}

// PaymentIntent is the subset of the payment-intent object this service reads.
type PaymentIntent struct {
	ID           string
	Status       string
	ClientSecret string
	InvoiceID    string
	Metadata     map[string]string
}

// CreatePaymentIntent creates a standalone payment intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	return c.createPaymentIntent(ctx, amount, currency, "", metadata)
}

func (c *Client) createPaymentIntent(ctx context.Context, amount int64, currency, customerID string, metadata map[string]string) (*PaymentIntent, error) {
	data := url.Values{}
	data.Set("amount", fmt.Sprintf("%d", amount))
	data.Set("currency", currency)
	if customerID != "" {
		data.Set("customer", customerID)
	}
	for k, v := range metadata {
		data.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	resp, err := c.post(ctx, "/payment_intents", data)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	pi := &PaymentIntent{}
	pi.ID, _ = resp["id"].(string)
	pi.ClientSecret, _ = resp["client_secret"].(string)
	if pi.ID == "" {
		return nil, fmt.Errorf("create payment intent: missing ID in response")
	}
	return pi, nil
}

// RetrievePaymentIntent fetches a payment intent with its invoice expanded.
func (c *Client) RetrievePaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	resp, err := c.get(ctx, "/payment_intents/"+url.PathEscape(paymentIntentID)+"?expand[]=invoice")
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}

	pi := &PaymentIntent{Metadata: map[string]string{}}
	pi.ID, _ = resp["id"].(string)
	pi.Status, _ = resp["status"].(string)
	switch invoice := resp["invoice"].(type) {
	case string:
		pi.InvoiceID = invoice
	case map[string]interface{}:
		pi.InvoiceID, _ = invoice["id"].(string)
	}
	if meta, ok := resp["metadata"].(map[string]interface{}); ok {
		for k, v := range meta {
			if s, ok := v.(string); ok {
				pi.Metadata[k] = s
			}
		}
	}
	return pi, nil
}

// Invoice is the subset of the invoice object this service reads.
type Invoice struct {
	ID             string
	Status         string
	SubscriptionID string
}

// RetrieveInvoice fetches an invoice with its subscription expanded.
func (c *Client) RetrieveInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	resp, err := c.get(ctx, "/invoices/"+url.PathEscape(invoiceID)+"?expand[]=subscription")
	if err != nil {
		return nil, fmt.Errorf("retrieve invoice: %w", err)
	}
	return invoiceFromResponse(resp), nil
}

// PayInvoiceOutOfBand marks an invoice paid without charging it again; the
// payment already happened through the payment intent.
func (c *Client) PayInvoiceOutOfBand(ctx context.Context, invoiceID string) (*Invoice, error) {
	data := url.Values{}
	data.Set("paid_out_of_band", "true")

	resp, err := c.post(ctx, "/invoices/"+url.PathEscape(invoiceID)+"/pay", data)
	if err != nil {
		return nil, fmt.Errorf("pay invoice: %w", err)
	}
	return invoiceFromResponse(resp), nil
}

func invoiceFromResponse(resp map[string]interface{}) *Invoice {
	inv := &Invoice{}
	inv.ID, _ = resp["id"].(string)
	inv.Status, _ = resp["status"].(string)
	switch sub := resp["subscription"].(type) {
	case string:
		inv.SubscriptionID = sub
	case map[string]interface{}:
		inv.SubscriptionID, _ = sub["id"].(string)
	}
	return inv
}

// Price is a catalog price joined with its product.
type Price struct {
	ID            string
	UnitAmount    int64
	Currency      string
	Interval      string
	IntervalCount int
	ProductName   string
	ProductID     string
}

// RetrievePrice fetches one price with its product expanded.
func (c *Client) RetrievePrice(ctx context.Context, priceID string) (*Price, error) {
	resp, err := c.get(ctx, "/prices/"+url.PathEscape(priceID)+"?expand[]=product")
	if err != nil {
		return nil, fmt.Errorf("retrieve price: %w", err)
	}

	price := &Price{}
	price.ID, _ = resp["id"].(string)
	if amount, ok := resp["unit_amount"].(float64); ok {
		price.UnitAmount = int64(amount)
	}
	price.Currency, _ = resp["currency"].(string)
	if recurring, ok := resp["recurring"].(map[string]interface{}); ok {
		price.Interval, _ = recurring["interval"].(string)
		if count, ok := recurring["interval_count"].(float64); ok {
			price.IntervalCount = int(count)
		}
	}
	switch product := resp["product"].(type) {
	case map[string]interface{}:
		price.ProductName, _ = product["name"].(string)
		price.ProductID, _ = product["id"].(string)
	case string:
		price.ProductID = product
	}
	return price, nil
}

// CreatePortalSession creates a billing self-service portal session for a
// customer and returns its URL.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	data := url.Values{}
	data.Set("customer", customerID)
	data.Set("return_url", returnURL)

	resp, err := c.post(ctx, "/billing_portal/sessions", data)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}

	portalURL, _ := resp["url"].(string)
	if portalURL == "" {
		return "", fmt.Errorf("create portal session: missing URL in response")
	}
	return portalURL, nil
}

// HTTP helpers

func (c *Client) post(ctx context.Context, path string, data url.Values) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	return c.doRequest(req)
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.secretKey, "")

	return c.doRequest(req)
}

func (c *Client) doRequest(req *http.Request) (map[string]interface{}, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read stripe response: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("parse stripe response: %w", err)
	}

	if resp.StatusCode >= 400 {
		errObj, _ := result["error"].(map[string]interface{})
		msg := "unknown error"
		if errObj != nil {
			if m, ok := errObj["message"].(string); ok {
				msg = m
			}
		}
		return nil, fmt.Errorf("stripe API error (%d): %s", resp.StatusCode, msg)
	}

	return result, nil
}
