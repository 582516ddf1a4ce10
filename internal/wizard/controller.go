package wizard

import (
	"context"
	"log"
	"time"

	"github.com/clem-pxp/elevate-auth/internal/asynclock"
	"github.com/clem-pxp/elevate-auth/internal/faults"
	"github.com/clem-pxp/elevate-auth/internal/identity"
	"github.com/clem-pxp/elevate-auth/internal/plans"
	"github.com/clem-pxp/elevate-auth/internal/storage"
)

// StateKey is the storage key the wizard persists under.
const StateKey = "elevate-inscription"

// User-facing payment messages.
const (
	msgPaymentVerifyFailed = "Impossible de vérifier le statut du paiement. Veuillez contacter le support."
	msgPaymentIncomplete   = "Le paiement n'a pas abouti. Veuillez réessayer."
)

// View is what the shell should currently render.
type View int

const (
	ViewStep1 View = iota + 1
	ViewStep2
	ViewStep3
	ViewStep4
	ViewOffline
	ViewPaymentProcessing
	ViewPaymentError
	ViewConfirmation
)

// Config wires the controller's collaborators.
type Config struct {
	Store    storage.Store
	Backend  Backend
	Identity identity.Service
	Nav      Navigator
	Conn     Connectivity
	Windows  WindowOpener
	Now      func() time.Time
}

// Controller drives the wizard: it owns the persisted State, runs the
// payment-return reconciliation protocol and gates every step transition.
// Mutating methods are meant to be called from a single goroutine; the
// reconciliation and portal guards additionally drop concurrent triggers.
type Controller struct {
	store    storage.Store
	backend  Backend
	identity identity.Service
	nav      Navigator
	conn     Connectivity
	windows  WindowOpener
	now      func() time.Time

	state  *State
	prices []plans.LivePrice

	reconcileLock asynclock.Lock
	portalLock    asynclock.Lock
	finalizeLock  asynclock.Lock

	// processedSessions lives only as long as this instance, mirroring
	// the lifetime of a page visit.
	processedSessions map[string]bool

	processing bool
	paymentErr string
}

// NewController loads the persisted state (defaulting to a fresh wizard)
// and returns a controller ready to Mount.
func NewController(ctx context.Context, cfg Config) (*Controller, error) {
	if cfg.Store == nil || cfg.Backend == nil || cfg.Identity == nil {
		return nil, faults.New(faults.KindInvariant, "wizard: store, backend and identity are required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Controller{
		store:             cfg.Store,
		backend:           cfg.Backend,
		identity:          cfg.Identity,
		nav:               cfg.Nav,
		conn:              cfg.Conn,
		windows:           cfg.Windows,
		now:               cfg.Now,
		processedSessions: map[string]bool{},
	}
	state := NewState()
	found, err := storage.LoadJSON(ctx, cfg.Store, StateKey, state)
	if err != nil {
		return nil, err
	}
	if !found {
		state = NewState()
	}
	c.state = state
	return c, nil
}

// State returns the current wizard state. Callers must treat it as
// read-only; all mutations go through controller methods.
func (c *Controller) State() *State {
	return c.state
}

// Mount runs the entry protocol: a payment return triggers reconciliation,
// a hard refresh without one restarts the wizard from scratch.
func (c *Controller) Mount(ctx context.Context) error {
	if c.nav != nil {
		if sessionID := c.nav.PaymentSessionID(); sessionID != "" {
			c.nav.StripPaymentSession()
			return c.Reconcile(ctx, sessionID)
		}
		if c.nav.Kind() == NavigationReload {
			return c.Restart(ctx)
		}
	}
	return nil
}

// Reconcile resolves a payment return against the backend and, on a
// completed payment, records the result and advances past the payment
// step. Duplicate triggers for the same session are dropped.
func (c *Controller) Reconcile(ctx context.Context, sessionID string) error {
	if c.processedSessions[sessionID] {
		return nil
	}
	c.processedSessions[sessionID] = true

	var rerr error
	ran, err := c.reconcileLock.RunExclusive(ctx, func(ctx context.Context) error {
		c.processing = true
		defer func() { c.processing = false }()

		status, err := c.backend.CheckoutStatus(ctx, sessionID)
		if err != nil {
			log.Printf("[wizard] checkout status for session %s failed: %v", sessionID, err)
			c.paymentErr = msgPaymentVerifyFailed
			rerr = faults.Wrap(faults.KindNetwork, msgPaymentVerifyFailed, err)
			return nil
		}
		if status.Status != "complete" {
			log.Printf("[wizard] session %s returned with status %q", sessionID, status.Status)
			c.paymentErr = msgPaymentIncomplete
			return nil
		}
		if status.CustomerID == "" {
			rerr = faults.New(faults.KindInvariant, "paiement complété sans identifiant client")
			return nil
		}
		c.state.SetPayment(status.CustomerID, status.SubscriptionID)
		c.state.CompleteStep(StepPayment)
		c.paymentErr = ""
		return c.persist(ctx)
	})
	if err != nil {
		return err
	}
	if !ran {
		return nil
	}
	return rerr
}

// RetryPayment dismisses a payment failure and returns to the payment step.
func (c *Controller) RetryPayment() {
	c.paymentErr = ""
	c.state.GoToStep(StepPayment)
}

// View computes what should be rendered right now.
func (c *Controller) View() View {
	if c.conn != nil && !c.conn.Online() {
		return ViewOffline
	}
	if c.processing {
		return ViewPaymentProcessing
	}
	if c.paymentErr != "" {
		return ViewPaymentError
	}
	switch c.state.CurrentStep {
	case StepIdentity:
		return ViewStep1
	case StepPlan:
		return ViewStep2
	case StepPayment:
		return ViewStep3
	default:
		if c.state.AccountCreated {
			return ViewConfirmation
		}
		return ViewStep4
	}
}

// PaymentError returns the active payment failure message, or "".
func (c *Controller) PaymentError() string {
	return c.paymentErr
}

// SubmitStep1 validates the identity form, checks the email is free and
// records the answers. A non-nil field map means the step did not advance.
func (c *Controller) SubmitStep1(ctx context.Context, form Step1Form) (map[string]string, error) {
	if c.state.AccountCreated {
		return nil, faults.New(faults.KindInvariant, "Votre compte est créé. Ces informations ne peuvent plus être modifiées.")
	}
	if errs := ValidateStep1(form); errs != nil {
		return errs, nil
	}
	exists, err := c.identity.CheckEmailExists(ctx, form.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return map[string]string{"email": msgEmailTaken}, nil
	}
	if err := c.state.SetIdentity(form.LastName, form.FirstName, form.Email, form.Phone, form.Birthday, form.Password); err != nil {
		return nil, err
	}
	c.state.CompleteStep(StepIdentity)
	return nil, c.persist(ctx)
}

// LoadPrices fetches live pricing for the plan step. The backend client
// caches; transient failures leave previously loaded prices in place.
func (c *Controller) LoadPrices(ctx context.Context) ([]plans.LivePrice, error) {
	prices, err := c.backend.FetchPrices(ctx)
	if err != nil {
		return c.prices, err
	}
	c.prices = prices
	return prices, nil
}

// Prices returns the last loaded live prices.
func (c *Controller) Prices() []plans.LivePrice {
	return c.prices
}

// SubmitStep2 records the chosen plan with its live price. While pricing
// has not loaded for the chosen plan the call is inert.
func (c *Controller) SubmitStep2(ctx context.Context, planID string) error {
	if c.state.AccountCreated {
		return faults.New(faults.KindInvariant, "Votre compte est créé. Ces informations ne peuvent plus être modifiées.")
	}
	var plan *plans.ResolvedPlan
	for _, rp := range plans.Resolve(c.prices) {
		if rp.Entry.ID == planID {
			plan = &rp
			break
		}
	}
	if plan == nil {
		return nil
	}
	sel := planSelection{
		PlanID:              plan.Entry.ID,
		PlanName:            plan.Entry.Name,
		PlanPrice:           plan.Price.TotalPrice(),
		StripePriceID:       plan.Entry.StripePriceID,
		BillingPeriodMonths: plan.Price.BillingPeriodMonths(),
	}
	if !validPlanSelection(sel) {
		return faults.New(faults.KindValidation, "Formule invalide")
	}
	if err := c.state.SetPlan(sel.PlanID, sel.PlanName, sel.PlanPrice, sel.StripePriceID, sel.BillingPeriodMonths); err != nil {
		return err
	}
	c.state.CompleteStep(StepPlan)
	return c.persist(ctx)
}

// StartPayment opens a checkout session for the selected plan and returns
// the client secret the payment surface embeds. The customer identifier is
// recorded immediately; the payment reference stays empty until the
// provider return is reconciled.
func (c *Controller) StartPayment(ctx context.Context) (clientSecret string, err error) {
	if c.state.Answers.StripePriceID == "" || c.state.Answers.Email == "" {
		return "", faults.New(faults.KindInvariant, "Données manquantes. Veuillez recommencer le processus.")
	}
	session, err := c.backend.CreateCheckoutSession(ctx, c.state.Answers.StripePriceID, c.state.Answers.Email)
	if err != nil {
		return "", err
	}
	c.state.SetPayment(session.CustomerID, "")
	if err := c.persist(ctx); err != nil {
		return "", err
	}
	return session.ClientSecret, nil
}

// NavigateTo moves to an unlocked step and reports whether the move
// happened. Skipping ahead of MaxStepReached is refused.
func (c *Controller) NavigateTo(ctx context.Context, step int) (bool, error) {
	if !c.state.GoToStep(step) {
		return false, nil
	}
	return true, c.persist(ctx)
}

// Restart drops all progress and answers and clears the persisted record.
func (c *Controller) Restart(ctx context.Context) error {
	c.state.Reset()
	c.paymentErr = ""
	if err := c.store.Clear(ctx, StateKey); err != nil {
		log.Printf("[wizard] clearing persisted state failed: %v", err)
		return err
	}
	return nil
}

func (c *Controller) persist(ctx context.Context) error {
	if err := storage.SaveJSON(ctx, c.store, StateKey, c.state); err != nil {
		log.Printf("[wizard] persisting state failed: %v", err)
		return err
	}
	return nil
}
