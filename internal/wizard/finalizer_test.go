package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/clem-pxp/elevate-auth/internal/faults"
	"github.com/clem-pxp/elevate-auth/internal/identity"
	"github.com/clem-pxp/elevate-auth/internal/storage"
)

func completedWizard(t *testing.T, store storage.Store, id identity.Service, password string) *Controller {
	t.Helper()
	c := newTestController(t, Config{
		Store:    store,
		Identity: id,
		Now:      func() time.Time { return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC) },
	})
	birthday := time.Date(1992, 3, 14, 0, 0, 0, 0, time.UTC)
	if err := c.state.SetIdentity("Durand", "Claire", "claire@example.com", "0612345678", &birthday, password); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if err := c.state.SetPlan("annuel", "Plan Annuel", 16.99, "price_1SJbjr1H0zcejTt5bnVqtmJJ", 12); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}
	c.state.SetPayment("cus_abc", "sub_def")
	c.state.CompleteStep(StepIdentity)
	c.state.CompleteStep(StepPlan)
	c.state.CompleteStep(StepPayment)
	return c
}

func TestFinalizeCredentialedAccount(t *testing.T) {
	id := &fakeIdentity{createUID: "uid_123"}
	c := completedWizard(t, storage.NewMemoryStore(), id, "secret1")

	if err := c.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !c.State().AccountCreated {
		t.Fatal("expected AccountCreated")
	}
	if id.savedUID != "uid_123" {
		t.Errorf("profile written for wrong subject: %q", id.savedUID)
	}
	if id.saved.AuthProvider != "email" {
		t.Errorf("expected provider email, got %q", id.saved.AuthProvider)
	}
	if id.saved.PaymentIntentID != "sub_def" || id.saved.PlanPrice != 16.99 {
		t.Errorf("profile incomplete: %+v", id.saved)
	}
	if !id.saved.CreatedAt.Equal(id.saved.UpdatedAt) {
		t.Error("expected identical creation and update timestamps")
	}
}

func TestFinalizeFederatedAccount(t *testing.T) {
	id := &fakeIdentity{session: &identity.Session{SubjectID: "uid_g", Email: "claire@example.com"}}
	c := completedWizard(t, storage.NewMemoryStore(), id, "")

	if err := c.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if id.savedUID != "uid_g" || id.saved.AuthProvider != "google" {
		t.Errorf("expected federated path, got uid=%q provider=%q", id.savedUID, id.saved.AuthProvider)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	id := &fakeIdentity{createUID: "uid_123"}
	c := completedWizard(t, storage.NewMemoryStore(), id, "secret1")

	if err := c.Finalize(context.Background()); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if err := c.Finalize(context.Background()); err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if id.saveCalls != 1 {
		t.Errorf("expected exactly 1 profile write, got %d", id.saveCalls)
	}
}

func TestFinalizeFailureLeavesAccountUncreated(t *testing.T) {
	id := &fakeIdentity{createUID: "uid_123", saveErr: faults.New(faults.KindNetwork, "Connexion impossible")}
	store := storage.NewMemoryStore()
	c := completedWizard(t, store, id, "secret1")

	if err := c.Finalize(context.Background()); err == nil {
		t.Fatal("expected Finalize to fail")
	}
	if c.State().AccountCreated {
		t.Fatal("AccountCreated must stay false after a failed finalization")
	}

	// A later attempt reruns the whole finalization and succeeds.
	id.saveErr = nil
	if err := c.Finalize(context.Background()); err != nil {
		t.Fatalf("retry Finalize: %v", err)
	}
	if !c.State().AccountCreated {
		t.Fatal("expected AccountCreated after retry")
	}
}

func TestFinalizeFederatedWithoutSession(t *testing.T) {
	id := &fakeIdentity{sessionErr: faults.New(faults.KindNotAuthenticated, "Utilisateur non connecté")}
	c := completedWizard(t, storage.NewMemoryStore(), id, "")

	err := c.Finalize(context.Background())
	if !faults.Is(err, faults.KindNotAuthenticated) {
		t.Fatalf("expected a not-authenticated fault, got %v", err)
	}
	if c.State().AccountCreated {
		t.Fatal("AccountCreated must stay false")
	}
}

func TestFinalizeMissingData(t *testing.T) {
	c := newTestController(t, Config{})
	err := c.Finalize(context.Background())
	if !faults.Is(err, faults.KindInvariant) {
		t.Fatalf("expected an invariant fault, got %v", err)
	}
}
