// Package wizard implements the multi-step registration and checkout flow:
// persisted step progress, collected answers, the controller state machine
// and the payment-return reconciliation protocol.
package wizard

import (
	"time"

	"github.com/clem-pxp/elevate-auth/internal/faults"
)

// Wizard steps, in order.
const (
	StepIdentity     = 1
	StepPlan         = 2
	StepPayment      = 3
	StepConfirmation = 4

	lastStep = StepConfirmation
)

// Answers accumulates everything the user provides across the steps.
type Answers struct {
	// Step 1
	LastName  string     `json:"nom"`
	FirstName string     `json:"prenom"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Password  string     `json:"password,omitempty"`

	// Step 2
	PlanID              string  `json:"planId"`
	PlanName            string  `json:"planName"`
	PlanPrice           float64 `json:"planPrice"`
	StripePriceID       string  `json:"stripePriceId"`
	BillingPeriodMonths int     `json:"billingPeriodMonths"`

	// Step 3
	PaymentIntentID  string `json:"paymentIntentId"`
	StripeCustomerID string `json:"stripeCustomerId"`
}

// State is the persisted wizard record. All mutations go through the named
// operations below so the monotonicity invariants hold everywhere.
type State struct {
	CurrentStep    int     `json:"currentStep"`
	CompletedSteps []int   `json:"completedSteps"`
	MaxStepReached int     `json:"maxStepReached"`
	AccountCreated bool    `json:"accountCreated"`
	Answers        Answers `json:"inscriptionData"`
}

// NewState returns the defaults of a fresh wizard.
func NewState() *State {
	return &State{
		CurrentStep:    StepIdentity,
		CompletedSteps: []int{},
		MaxStepReached: StepIdentity,
	}
}

// CompleteStep records step as done and advances to the next one.
// Idempotent: a second completion of the same step still advances
// CurrentStep but never duplicates the completed entry, and
// MaxStepReached only grows.
func (s *State) CompleteStep(step int) {
	if step < StepIdentity || step >= lastStep {
		return
	}
	if !s.IsStepCompleted(step) {
		s.CompletedSteps = append(s.CompletedSteps, step)
	}
	s.CurrentStep = step + 1
	if s.MaxStepReached < step+1 {
		s.MaxStepReached = step + 1
	}
}

// IsStepCompleted reports whether step passed validation at least once.
func (s *State) IsStepCompleted(step int) bool {
	for _, done := range s.CompletedSteps {
		if done == step {
			return true
		}
	}
	return false
}

// GoToStep moves to an already-unlocked step. Forward-skipping past
// MaxStepReached leaves CurrentStep unchanged and reports false.
func (s *State) GoToStep(step int) bool {
	if step < StepIdentity || step > lastStep || step > s.MaxStepReached {
		return false
	}
	s.CurrentStep = step
	return true
}

// SetIdentity stores the step-1 answers. Frozen once the account exists.
func (s *State) SetIdentity(lastName, firstName, email, phone string, birthday *time.Time, password string) error {
	if s.AccountCreated {
		return faults.New(faults.KindInvariant, "Votre compte est créé. Ces informations ne peuvent plus être modifiées.")
	}
	s.Answers.LastName = lastName
	s.Answers.FirstName = firstName
	s.Answers.Email = email
	s.Answers.Phone = phone
	s.Answers.Birthday = birthday
	s.Answers.Password = password
	return nil
}

// SetPlan stores the step-2 derived plan fields. Frozen once the account exists.
func (s *State) SetPlan(planID, planName string, planPrice float64, stripePriceID string, billingPeriodMonths int) error {
	if s.AccountCreated {
		return faults.New(faults.KindInvariant, "Votre compte est créé. Ces informations ne peuvent plus être modifiées.")
	}
	s.Answers.PlanID = planID
	s.Answers.PlanName = planName
	s.Answers.PlanPrice = planPrice
	s.Answers.StripePriceID = stripePriceID
	s.Answers.BillingPeriodMonths = billingPeriodMonths
	return nil
}

// SetPayment stores the reconciliation result. Payment fields stay
// mutable after account creation.
func (s *State) SetPayment(customerID, paymentIntentID string) {
	s.Answers.StripeCustomerID = customerID
	s.Answers.PaymentIntentID = paymentIntentID
}

// MarkAccountCreated freezes identity and plan answers.
func (s *State) MarkAccountCreated() {
	s.AccountCreated = true
}

// Reset restores the defaults, dropping all collected answers.
func (s *State) Reset() {
	*s = *NewState()
}
