package wizard

import (
	"context"

	"github.com/clem-pxp/elevate-auth/internal/models"
	"github.com/clem-pxp/elevate-auth/internal/plans"
)

// Backend is the slice of the payment API the wizard needs. Implemented by
// apiclient.Client in production and stubbed in tests.
type Backend interface {
	CreateCheckoutSession(ctx context.Context, priceID, email string) (*models.CreateCheckoutSessionResponse, error)
	CheckoutStatus(ctx context.Context, sessionID string) (*models.CheckoutStatusResponse, error)
	FetchPrices(ctx context.Context) ([]plans.LivePrice, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// NavigationKind classifies how the current wizard instance was entered.
type NavigationKind int

const (
	// NavigationNew is a fresh entry into the flow.
	NavigationNew NavigationKind = iota
	// NavigationReload is a hard refresh of an existing instance.
	NavigationReload
	// NavigationInternal is an in-flow transition that keeps state.
	NavigationInternal
)

// Navigator exposes the entry context of the current wizard instance:
// whether a payment return token is present and how the instance was reached.
type Navigator interface {
	// PaymentSessionID returns the checkout session identifier carried by
	// the payment-provider return, or "" when absent.
	PaymentSessionID() string
	// StripPaymentSession removes the session identifier from the entry
	// point so a refresh does not retrigger reconciliation.
	StripPaymentSession()
	// Kind reports how this instance was entered.
	Kind() NavigationKind
}

// Connectivity reports whether the backing services are reachable.
type Connectivity interface {
	Online() bool
}

// Window is a pre-opened external surface the portal handoff navigates.
type Window interface {
	Navigate(url string)
	Close()
}

// WindowOpener opens a blank external window synchronously, before any
// network round-trip, so the handoff is not blocked by popup rules.
type WindowOpener interface {
	OpenBlank() (Window, error)
}
