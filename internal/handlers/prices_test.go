package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clem-pxp/elevate-auth/internal/models"
	"github.com/clem-pxp/elevate-auth/internal/plans"
)

func TestListPrices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/", func(w http.ResponseWriter, r *http.Request) {
		priceID := strings.TrimPrefix(r.URL.Path, "/prices/")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          priceID,
			"unit_amount": float64(169),
			"currency":    "eur",
			"recurring": map[string]interface{}{
				"interval":       "month",
				"interval_count": float64(1),
			},
			"product": map[string]interface{}{"id": "prod_1", "name": "Plan"},
		})
	})

	h := NewPricesHandler(fakeStripe(t, mux))
	req := httptest.NewRequest(http.MethodGet, "/api/stripe/prices", nil)
	rr := httptest.NewRecorder()
	h.ListPrices().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp models.PricesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Prices) != len(plans.Catalog) {
		t.Fatalf("expected %d prices, got %d", len(plans.Catalog), len(resp.Prices))
	}
	if resp.Prices[0].Amount != 169 || resp.Prices[0].Interval != "month" {
		t.Errorf("unexpected price: %+v", resp.Prices[0])
	}
}

func TestListPricesSkipsFailingEntry(t *testing.T) {
	failing := plans.PriceIDs()[0]
	mux := http.NewServeMux()
	mux.HandleFunc("GET /prices/", func(w http.ResponseWriter, r *http.Request) {
		priceID := strings.TrimPrefix(r.URL.Path, "/prices/")
		if priceID == failing {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": "No such price"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": priceID, "unit_amount": float64(999), "currency": "eur",
		})
	})

	h := NewPricesHandler(fakeStripe(t, mux))
	req := httptest.NewRequest(http.MethodGet, "/api/stripe/prices", nil)
	rr := httptest.NewRecorder()
	h.ListPrices().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp models.PricesResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Prices) != len(plans.Catalog)-1 {
		t.Errorf("expected the failing entry to be skipped, got %d prices", len(resp.Prices))
	}
}

func TestCreatePortalSessionHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /billing_portal/sessions", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.FormValue("customer"); got != "cus_abc" {
			t.Errorf("customer = %q", got)
		}
		if got := r.FormValue("return_url"); got != "http://localhost:8080/profil" {
			t.Errorf("return_url = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"url": "https://billing.stripe.com/p/session/abc"})
	})

	h := NewPortalHandler(fakeStripe(t, mux), "http://localhost:8080")
	req := httptest.NewRequest(http.MethodPost, "/api/create-portal-session", strings.NewReader(`{"customerId":"cus_abc"}`))
	rr := httptest.NewRecorder()
	h.CreatePortalSession().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp models.CreatePortalSessionResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.URL != "https://billing.stripe.com/p/session/abc" {
		t.Errorf("url = %q", resp.URL)
	}
}

func TestCreatePortalSessionRequiresCustomer(t *testing.T) {
	h := NewPortalHandler(fakeStripe(t, http.NewServeMux()), "http://localhost:8080")
	req := httptest.NewRequest(http.MethodPost, "/api/create-portal-session", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.CreatePortalSession().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
