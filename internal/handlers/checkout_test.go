package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clem-pxp/elevate-auth/internal/models"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
)

const testPriceID = "price_1SJbhV1H0zcejTt5FrRJtZzQ"

// fakeStripe mimics the payment-platform endpoints the handlers reach.
func fakeStripe(t *testing.T, mux *http.ServeMux) *stripeClient.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return stripeClient.NewClientWithBaseURL("sk_test_123", server.URL)
}

func TestCreateCheckoutSessionReusesCustomer(t *testing.T) {
	mux := http.NewServeMux()
	var created bool
	mux.HandleFunc("GET /customers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "cus_existing", "email": "claire@example.com"}},
		})
	})
	mux.HandleFunc("POST /customers", func(w http.ResponseWriter, r *http.Request) {
		created = true
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "cus_new"})
	})
	mux.HandleFunc("POST /checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.FormValue("customer"); got != "cus_existing" {
			t.Errorf("customer = %q", got)
		}
		if got := r.FormValue("ui_mode"); got != "embedded" {
			t.Errorf("ui_mode = %q", got)
		}
		if got := r.FormValue("return_url"); !strings.Contains(got, "{CHECKOUT_SESSION_ID}") {
			t.Errorf("return_url missing session template: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "cs_test_1", "client_secret": "cs_secret"})
	})

	h := NewCheckoutHandler(fakeStripe(t, mux), "http://localhost:8080")
	body := `{"priceId":"` + testPriceID + `","email":"claire@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateCheckoutSession().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp models.CreateCheckoutSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ClientSecret != "cs_secret" || resp.SessionID != "cs_test_1" || resp.CustomerID != "cus_existing" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if created {
		t.Error("expected the existing customer to be reused")
	}
}

func TestCreateCheckoutSessionRejectsUnknownPrice(t *testing.T) {
	h := NewCheckoutHandler(fakeStripe(t, http.NewServeMux()), "http://localhost:8080")
	body := `{"priceId":"price_rogue","email":"claire@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateCheckoutSession().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp models.ErrorResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Error != "Invalid price ID" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestCreateCheckoutSessionValidatesPayload(t *testing.T) {
	h := NewCheckoutHandler(fakeStripe(t, http.NewServeMux()), "http://localhost:8080")
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(`{"email":"not-an-email"}`))
	rr := httptest.NewRecorder()
	h.CreateCheckoutSession().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp models.ErrorResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Details) == 0 {
		t.Errorf("expected field details, got %+v", resp)
	}
}

func TestCheckoutStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /checkout/sessions/cs_test_1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "cs_test_1",
			"status":       "complete",
			"customer":     "cus_abc",
			"subscription": "sub_def",
			"customer_details": map[string]interface{}{
				"email": "claire@example.com",
			},
		})
	})

	h := NewCheckoutHandler(fakeStripe(t, mux), "http://localhost:8080")
	req := httptest.NewRequest(http.MethodGet, "/api/checkout-status?session_id=cs_test_1", nil)
	rr := httptest.NewRecorder()
	h.CheckoutStatus().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp models.CheckoutStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "complete" || resp.CustomerID != "cus_abc" ||
		resp.SubscriptionID != "sub_def" || resp.CustomerEmail != "claire@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCheckoutStatusRequiresSessionID(t *testing.T) {
	h := NewCheckoutHandler(fakeStripe(t, http.NewServeMux()), "http://localhost:8080")
	req := httptest.NewRequest(http.MethodGet, "/api/checkout-status", nil)
	rr := httptest.NewRecorder()
	h.CheckoutStatus().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateSubscription(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /customers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]interface{}{}})
	})
	mux.HandleFunc("POST /customers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "cus_new"})
	})
	mux.HandleFunc("POST /subscriptions", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.FormValue("payment_behavior"); got != "default_incomplete" {
			t.Errorf("payment_behavior = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "sub_123",
			"status": "incomplete",
			"latest_invoice": map[string]interface{}{
				"id": "in_123",
				"payment_intent": map[string]interface{}{
					"id":            "pi_123",
					"client_secret": "pi_secret",
				},
			},
		})
	})

	h := NewCheckoutHandler(fakeStripe(t, mux), "http://localhost:8080")
	body := `{"priceId":"` + testPriceID + `","email":"claire@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-subscription", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.CreateSubscription().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp models.CreateSubscriptionResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.SubscriptionID != "sub_123" || resp.ClientSecret != "pi_secret" || resp.CustomerID != "cus_new" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreatePaymentIntentPricesFromCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/"+testPriceID, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          testPriceID,
			"unit_amount": float64(169),
			"currency":    "eur",
		})
	})
	mux.HandleFunc("POST /payment_intents", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.FormValue("amount"); got != "169" {
			t.Errorf("amount = %q", got)
		}
		if got := r.FormValue("currency"); got != "eur" {
			t.Errorf("currency = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "pi_123", "client_secret": "pi_secret"})
	})

	h := NewCheckoutHandler(fakeStripe(t, mux), "http://localhost:8080")
	req := httptest.NewRequest(http.MethodPost, "/api/create-payment-intent", strings.NewReader(`{"priceId":"`+testPriceID+`"}`))
	rr := httptest.NewRecorder()
	h.CreatePaymentIntent().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp models.CreatePaymentIntentResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.ClientSecret != "pi_secret" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
