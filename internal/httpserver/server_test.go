package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clem-pxp/elevate-auth/internal/config"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
)

func testServer() *Server {
	cfg := config.Config{
		ServerAddress: ":0",
		AppBaseURL:    "http://localhost:8080",
	}
	return New(cfg, stripeClient.NewClient("sk_test_123"))
}

func TestHealthRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	testServer().Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}

func TestPaymentRoutesRegistered(t *testing.T) {
	// Invalid payloads prove routing without reaching the payment platform.
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/create-checkout-session"},
		{http.MethodGet, "/api/checkout-status"},
		{http.MethodPost, "/api/create-subscription"},
		{http.MethodPost, "/api/create-payment-intent"},
		{http.MethodPost, "/api/create-portal-session"},
		{http.MethodPost, "/api/verify-payment"},
		{http.MethodPost, "/api/webhooks/stripe"},
	}

	handler := testServer().Handler()
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code == http.StatusNotFound || rr.Code == http.StatusMethodNotAllowed {
			t.Errorf("%s %s is not routed (status %d)", tc.method, tc.path, rr.Code)
		}
	}
}
