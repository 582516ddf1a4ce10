package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clem-pxp/elevate-auth/internal/faults"
)

func newTestService(t *testing.T, handler http.Handler) *FirebaseService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewFirebaseService("test-key", "elevate-test")
	s.SetBaseURLs(srv.URL, srv.URL)
	return s
}

func TestCreateUserSuccess(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"localId":"uid-123","idToken":"tok"}`))
	}))

	uid, err := s.CreateUser(context.Background(), "new@example.com", "secret123")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if uid != "uid-123" {
		t.Fatalf("unexpected subject id: %s", uid)
	}
}

func TestCreateUserEmailExistsMapsToDuplicate(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"EMAIL_EXISTS"}}`))
	}))

	_, err := s.CreateUser(context.Background(), "taken@example.com", "secret123")
	if !faults.Is(err, faults.KindDuplicate) {
		t.Fatalf("expected duplicate fault, got %v", err)
	}
	if got := faults.MessageOf(err); got != "Cet email est déjà utilisé" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestCreateUserWeakPasswordWithDetailSuffix(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`))
	}))

	_, err := s.CreateUser(context.Background(), "new@example.com", "abc")
	if !faults.Is(err, faults.KindExternalPlatform) {
		t.Fatalf("expected external platform fault, got %v", err)
	}
	if got := faults.MessageOf(err); got != "Le mot de passe est trop faible" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestCheckEmailExistsFound(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"document":{"name":"projects/p/databases/(default)/documents/users/uid-1"}}]`))
	}))

	exists, err := s.CheckEmailExists(context.Background(), "taken@example.com")
	if err != nil {
		t.Fatalf("CheckEmailExists returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected email to exist")
	}
}

func TestCheckEmailExistsLookupFailureIsNotFatal(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	exists, err := s.CheckEmailExists(context.Background(), "any@example.com")
	if err != nil {
		t.Fatalf("lookup failure must not be fatal, got %v", err)
	}
	if exists {
		t.Fatal("failed lookup must report not-existing")
	}
}

func TestCurrentSessionWithoutSignIn(t *testing.T) {
	s := NewFirebaseService("test-key", "elevate-test")

	_, err := s.CurrentSession(context.Background())
	if !faults.Is(err, faults.KindNotAuthenticated) {
		t.Fatalf("expected not-authenticated fault, got %v", err)
	}
}

func TestSaveProfile(t *testing.T) {
	var gotMethod, gotPath string
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"name":"projects/p/databases/(default)/documents/users/uid-1"}`))
	}))

	birthday := time.Date(1995, 4, 2, 0, 0, 0, 0, time.UTC)
	profile := Profile{
		LastName:     "Doe",
		FirstName:    "Jeanne",
		Email:        "jeanne@example.com",
		Birthday:     &birthday,
		PlanID:       "annuel",
		AuthProvider: "email",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.SaveProfile(context.Background(), "uid-1", profile); err != nil {
		t.Fatalf("SaveProfile returned error: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/projects/elevate-test/databases/(default)/documents/users/uid-1" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
}
