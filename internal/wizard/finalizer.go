package wizard

import (
	"context"
	"log"

	"github.com/clem-pxp/elevate-auth/internal/faults"
	"github.com/clem-pxp/elevate-auth/internal/identity"
)

const msgMissingData = "Données manquantes. Veuillez recommencer le processus."

// Finalize creates the account and writes the profile document once the
// payment step has completed. Idempotent: a second call after success is
// a no-op. On any failure AccountCreated stays false so the whole
// finalization reruns next time.
func (c *Controller) Finalize(ctx context.Context) error {
	if c.state.AccountCreated {
		return nil
	}

	var ferr error
	ran, err := c.finalizeLock.RunExclusive(ctx, func(ctx context.Context) error {
		ferr = c.finalize(ctx)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	return ferr
}

func (c *Controller) finalize(ctx context.Context) error {
	a := c.state.Answers
	if a.Email == "" || a.PlanID == "" || a.StripePriceID == "" {
		return faults.New(faults.KindInvariant, msgMissingData)
	}

	subjectID, provider, err := c.resolveSubject(ctx, a.Email, a.Password)
	if err != nil {
		return err
	}

	now := c.now()
	profile := identity.Profile{
		LastName:        a.LastName,
		FirstName:       a.FirstName,
		Email:           a.Email,
		Phone:           a.Phone,
		Birthday:        a.Birthday,
		PlanID:          a.PlanID,
		PlanName:        a.PlanName,
		PlanPrice:       a.PlanPrice,
		PaymentIntentID: a.PaymentIntentID,
		AuthProvider:    provider,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.identity.SaveProfile(ctx, subjectID, profile); err != nil {
		log.Printf("[wizard] profile write for %s failed: %v", subjectID, err)
		return err
	}

	c.state.MarkAccountCreated()
	if err := c.persist(ctx); err != nil {
		return err
	}
	log.Printf("[wizard] account finalized for subject %s (provider %s)", subjectID, provider)
	return nil
}

// resolveSubject picks the identity path: an empty password means the user
// arrived through a federated provider and already holds a session; otherwise
// a credentialed account is created now.
func (c *Controller) resolveSubject(ctx context.Context, email, password string) (subjectID, provider string, err error) {
	if password == "" {
		session, err := c.identity.CurrentSession(ctx)
		if err != nil {
			return "", "", err
		}
		return session.SubjectID, "google", nil
	}
	uid, err := c.identity.CreateUser(ctx, email, password)
	if err != nil {
		return "", "", err
	}
	return uid, "email", nil
}
