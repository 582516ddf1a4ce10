package wizard

import (
	"testing"
	"time"
)

func TestCompleteStepIdempotent(t *testing.T) {
	s := NewState()

	s.CompleteStep(StepIdentity)
	s.CompleteStep(StepIdentity)

	if got := len(s.CompletedSteps); got != 1 {
		t.Fatalf("expected 1 completed step, got %d (%v)", got, s.CompletedSteps)
	}
	if s.CurrentStep != StepPlan {
		t.Errorf("expected CurrentStep %d, got %d", StepPlan, s.CurrentStep)
	}
	if s.MaxStepReached != StepPlan {
		t.Errorf("expected MaxStepReached %d, got %d", StepPlan, s.MaxStepReached)
	}
}

func TestMaxStepReachedNeverDecreases(t *testing.T) {
	s := NewState()
	s.CompleteStep(StepIdentity)
	s.CompleteStep(StepPlan)

	if !s.GoToStep(StepIdentity) {
		t.Fatal("expected back-navigation to step 1 to succeed")
	}
	if s.MaxStepReached != StepPayment {
		t.Errorf("expected MaxStepReached %d after going back, got %d", StepPayment, s.MaxStepReached)
	}

	// Re-completing an earlier step must not shrink the unlocked range.
	s.CompleteStep(StepIdentity)
	if s.MaxStepReached != StepPayment {
		t.Errorf("expected MaxStepReached %d after re-completion, got %d", StepPayment, s.MaxStepReached)
	}
}

func TestGoToStepRefusesSkippingAhead(t *testing.T) {
	s := NewState()
	s.CompleteStep(StepIdentity)

	if s.GoToStep(StepPayment) {
		t.Fatal("expected skipping to step 3 to be refused")
	}
	if s.CurrentStep != StepPlan {
		t.Errorf("expected CurrentStep unchanged at %d, got %d", StepPlan, s.CurrentStep)
	}
	if s.GoToStep(0) || s.GoToStep(5) {
		t.Error("expected out-of-range steps to be refused")
	}
}

func TestIdentityAndPlanFrozenAfterAccountCreation(t *testing.T) {
	s := NewState()
	birthday := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := s.SetIdentity("Durand", "Claire", "claire@example.com", "0612345678", &birthday, "secret1"); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	s.MarkAccountCreated()

	if err := s.SetIdentity("Autre", "Nom", "autre@example.com", "0612345678", &birthday, "secret1"); err == nil {
		t.Fatal("expected SetIdentity to be refused after account creation")
	}
	if err := s.SetPlan("mensuel", "Plan Mensuel", 1.69, "price_1SJbhV1H0zcejTt5FrRJtZzQ", 1); err == nil {
		t.Fatal("expected SetPlan to be refused after account creation")
	}
	if s.Answers.Email != "claire@example.com" {
		t.Errorf("identity answers mutated: %q", s.Answers.Email)
	}

	// Payment fields stay writable.
	s.SetPayment("cus_123", "sub_456")
	if s.Answers.StripeCustomerID != "cus_123" || s.Answers.PaymentIntentID != "sub_456" {
		t.Error("expected payment fields to remain mutable")
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	s := NewState()
	birthday := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	_ = s.SetIdentity("Durand", "Claire", "claire@example.com", "0612345678", &birthday, "secret1")
	s.CompleteStep(StepIdentity)
	s.CompleteStep(StepPlan)

	s.Reset()

	if s.CurrentStep != StepIdentity || s.MaxStepReached != StepIdentity {
		t.Errorf("expected fresh step pointers, got current=%d max=%d", s.CurrentStep, s.MaxStepReached)
	}
	if len(s.CompletedSteps) != 0 || s.AccountCreated || s.Answers.Email != "" {
		t.Error("expected all answers and flags cleared")
	}
}
