package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clem-pxp/elevate-auth/internal/config"
	"github.com/clem-pxp/elevate-auth/internal/handlers"
	stripeClient "github.com/clem-pxp/elevate-auth/internal/stripe"
)

// Server wraps an http.Server with convenience helpers for startup/shutdown.
type Server struct {
	httpServer *http.Server
}

// New constructs the HTTP server with every payment endpoint registered.
func New(cfg config.Config, stripe *stripeClient.Client) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", handlers.Health)

	handlers.NewCheckoutHandler(stripe, cfg.AppBaseURL).RegisterRoutes(router)
	handlers.NewPricesHandler(stripe).RegisterRoutes(router)
	handlers.NewPortalHandler(stripe, cfg.AppBaseURL).RegisterRoutes(router)
	handlers.NewVerifyHandler(stripe).RegisterRoutes(router)
	handlers.NewWebhookHandler(stripe, cfg.StripeWebhookSecret).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{httpServer: srv}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
