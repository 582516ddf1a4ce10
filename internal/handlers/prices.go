package handlers

import (
	"log"
	"net/http"

	"github.com/clem-pxp/elevate-auth/internal/models"
	"github.com/clem-pxp/elevate-auth/internal/plans"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
	"github.com/go-chi/chi/v5"
)

// PricesHandler serves the live catalog prices.
type PricesHandler struct {
	Stripe *stripeClient.Client
}

// NewPricesHandler creates a new PricesHandler.
func NewPricesHandler(stripe *stripeClient.Client) *PricesHandler {
	return &PricesHandler{Stripe: stripe}
}

// RegisterRoutes registers the price routes.
func (h *PricesHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/stripe/prices", h.ListPrices())
}

// ListPrices fetches every catalog price from the payment platform with
// its product joined. A price that fails to load is skipped so a single
// misconfigured entry does not blank the whole plan step.
func (h *PricesHandler) ListPrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := make([]plans.LivePrice, 0, len(plans.Catalog))
		for _, priceID := range plans.PriceIDs() {
			price, err := h.Stripe.RetrievePrice(r.Context(), priceID)
			if err != nil {
				log.Printf("ListPrices: price %s failed: %v", priceID, err)
				continue
			}
			live = append(live, plans.LivePrice{
				ID:            price.ID,
				Amount:        price.UnitAmount,
				Currency:      price.Currency,
				Interval:      price.Interval,
				IntervalCount: price.IntervalCount,
				ProductName:   price.ProductName,
				ProductID:     price.ProductID,
			})
		}

		if len(live) == 0 {
			writeError(w, http.StatusInternalServerError, "failed to fetch prices")
			return
		}
		writeJSON(w, http.StatusOK, models.PricesResponse{Prices: live})
	}
}
