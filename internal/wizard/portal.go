package wizard

import (
	"context"
	"log"

	"github.com/clem-pxp/elevate-auth/internal/faults"
)

const msgPortalFailed = "Impossible d'ouvrir le portail de facturation. Veuillez réessayer."

// OpenBillingPortal hands the user off to the billing management portal.
// The target window opens before the session round-trip so the handoff is
// not blocked by popup rules; on failure the window is closed again.
// Concurrent triggers while a handoff is in flight are dropped.
func (c *Controller) OpenBillingPortal(ctx context.Context) error {
	customerID := c.state.Answers.StripeCustomerID
	if customerID == "" {
		return faults.New(faults.KindInvariant, msgPortalFailed)
	}
	if c.windows == nil {
		return faults.New(faults.KindInvariant, "wizard: no window opener configured")
	}

	var perr error
	ran, err := c.portalLock.RunExclusive(ctx, func(ctx context.Context) error {
		w, err := c.windows.OpenBlank()
		if err != nil {
			perr = faults.Wrap(faults.KindExternalPlatform, msgPortalFailed, err)
			return nil
		}
		url, err := c.backend.CreatePortalSession(ctx, customerID)
		if err != nil {
			w.Close()
			log.Printf("[wizard] portal session for customer %s failed: %v", customerID, err)
			perr = faults.Wrap(faults.KindNetwork, msgPortalFailed, err)
			return nil
		}
		w.Navigate(url)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	return perr
}
