package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/clem-pxp/elevate-auth/internal/models"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
	"github.com/go-chi/chi/v5"
)

// PortalHandler serves the billing self-service portal handoff.
type PortalHandler struct {
	Stripe     *stripeClient.Client
	AppBaseURL string
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(stripe *stripeClient.Client, appBaseURL string) *PortalHandler {
	return &PortalHandler{
		Stripe:     stripe,
		AppBaseURL: strings.TrimSuffix(appBaseURL, "/"),
	}
}

// RegisterRoutes registers the portal routes.
func (h *PortalHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/create-portal-session", h.CreatePortalSession())
}

// CreatePortalSession creates a billing portal session for a customer and
// returns its URL.
func (h *PortalHandler) CreatePortalSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreatePortalSessionRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		url, err := h.Stripe.CreatePortalSession(r.Context(), req.CustomerID, h.AppBaseURL+"/profil")
		if err != nil {
			log.Printf("CreatePortalSession: Stripe error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create portal session")
			return
		}

		writeJSON(w, http.StatusOK, models.CreatePortalSessionResponse{URL: url})
	}
}
